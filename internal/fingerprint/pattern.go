package fingerprint

// patternRadius bounds the coordinates of the binary test pattern.
const patternRadius = 13

// testPair is one BRIEF intensity comparison: bit = I(p1) < I(p2).
type testPair struct {
	x1, y1, x2, y2 int8
}

// briefPattern holds the DescriptorLength*8 point pairs, sampled once from an
// isotropic Gaussian (sigma = patch/5) clamped to patternRadius. Stored
// descriptors are only comparable while this table stays unchanged.
var briefPattern = [DescriptorLength * 8]testPair{
	{-2, -2, -7, 2}, {3, 9, 5, -7}, {-1, 5, -6, -1}, {3, 8, -13, 0},
	{5, 3, -2, -2}, {2, -4, -4, 13}, {0, 8, 3, 3}, {4, 6, 7, 4},
	{0, -2, 0, 3}, {10, -6, 0, -1}, {5, -9, -4, -2}, {5, 3, 7, -6},
	{-2, 6, -1, -7}, {11, -8, 6, 10}, {-8, 12, 6, -10}, {-4, -8, 12, 3},
	{4, 13, 5, -3}, {6, -13, -8, 11}, {-10, -2, 4, -4}, {-4, 9, 6, -4},
	{5, -5, 4, 6}, {-2, 2, 1, -13}, {-3, -3, 4, 5}, {7, 5, 0, -9},
	{-2, 4, -5, -8}, {1, 3, -3, 2}, {-9, 0, -5, 0}, {-7, -6, -7, 7},
	{-9, 1, -1, 1}, {2, -8, -3, -3}, {-9, 1, -2, -5}, {4, -5, -1, 2},
	{1, -5, -3, -12}, {-13, 12, -12, -2}, {4, -6, 2, -9}, {0, -4, -3, 2},
	{2, -3, 5, -4}, {-13, 5, 13, -2}, {-4, -4, -11, -13}, {7, -7, 6, -10},
	{-5, -7, 7, 7}, {2, 2, -10, 6}, {1, -6, 3, -7}, {0, 3, 2, 0},
	{3, -11, -1, 4}, {-5, 5, -6, -1}, {2, -4, 0, 2}, {-4, -13, -3, -10},
	{4, 7, 0, -3}, {6, 3, -1, 7}, {-1, 4, -11, 4}, {-8, -4, 0, -7},
	{1, -1, -9, -1}, {6, 2, 4, 7}, {-3, -2, 4, -4}, {8, -5, -8, -5},
	{7, 1, 2, -8}, {-2, 5, -5, 5}, {5, -6, -2, -7}, {1, 1, 5, -4},
	{9, 8, -9, -10}, {1, -1, -5, 1}, {2, -7, 7, -4}, {-4, 5, -4, 6},
	{-5, -4, -6, 12}, {0, -10, -6, -6}, {8, -5, -2, -7}, {-5, -8, 3, 3},
	{2, 3, -3, -6}, {-2, -11, -5, 0}, {2, 5, 1, -4}, {0, -4, -2, 11},
	{5, 13, -8, 1}, {8, -12, -3, 2}, {1, -6, 6, -8}, {4, 0, -3, -2},
	{-5, -5, -4, -10}, {-3, -5, 6, -8}, {-5, -2, 5, 9}, {11, 12, 5, 7},
	{5, 9, -5, 10}, {9, 11, -1, 4}, {-13, 4, -13, -3}, {-7, -3, -3, 0},
	{4, 6, 5, -11}, {-4, 1, 0, -10}, {5, 4, 6, 11}, {-7, -5, -2, -4},
	{0, 1, 0, -1}, {8, -13, -3, 6}, {0, -1, -1, -13}, {-1, -2, 0, 2},
	{-1, 7, 6, 8}, {-7, 3, 9, -4}, {0, -1, 2, 0}, {-13, 4, 1, 8},
	{-8, -1, -12, -3}, {7, -1, -4, 1}, {-9, -2, 13, 3}, {-7, -7, -13, -9},
	{-1, -4, 2, -13}, {-6, 4, -3, -7}, {-3, 3, 1, -1}, {5, 3, 4, 6},
	{-12, -1, 5, 6}, {-4, -3, -4, -7}, {2, -4, 0, -3}, {2, 7, 2, -1},
	{1, 7, 3, -7}, {-12, -2, 6, 7}, {-4, 3, -11, -5}, {7, -6, -13, -1},
	{-1, 0, 1, -7}, {-4, -4, 5, 5}, {-2, -3, -2, 0}, {4, -4, -4, -1},
	{-3, 6, -2, -9}, {1, 3, 4, 1}, {0, 6, 0, -2}, {-5, 5, -5, 7},
	{10, -3, 4, 7}, {7, 13, 2, -5}, {4, -1, -7, 8}, {-13, 5, 2, 2},
	{1, 1, -8, 2}, {3, 2, 5, 0}, {9, 7, 13, -10}, {3, 3, 4, 4},
	{8, 8, 0, -8}, {13, 1, 6, 3}, {3, -10, -9, -3}, {2, -7, 2, 1},
	{3, 1, -7, -13}, {7, 3, 3, -4}, {-6, 4, 4, 4}, {-5, 9, 0, -5},
	{6, 2, -10, -5}, {-4, -3, 0, -2}, {7, 6, 1, -1}, {0, -13, 6, 1},
	{6, 6, -3, 5}, {-1, -6, 3, 13}, {2, 5, 11, -1}, {0, -4, 2, 2},
	{-7, -5, -2, 0}, {5, -7, -1, 8}, {5, -1, 2, -2}, {3, 2, -8, 2},
	{4, 4, -5, 2}, {7, -4, -10, 3}, {3, -3, 0, -3}, {-2, -1, 7, 9},
	{8, 3, 6, 4}, {-7, -3, -2, -6}, {-8, 0, -3, 1}, {3, 1, 1, 2},
	{0, -10, 12, -13}, {-5, 5, -4, 4}, {2, 5, -3, 9}, {-2, -8, -2, 13},
	{-2, -5, 1, 5}, {6, 1, 0, -5}, {9, -8, -1, -5}, {3, -11, 1, 6},
	{-3, 4, -4, 1}, {2, -11, 10, -8}, {0, 4, 1, -7}, {8, -4, 9, -6},
	{-2, -3, -5, -8}, {-4, 12, 7, 0}, {-5, -5, -1, 4}, {7, 0, -4, -8},
	{-9, 3, 8, 2}, {13, 3, 4, -6}, {0, 7, 2, -3}, {-1, 3, -5, -4},
	{-3, 13, 5, 0}, {6, 8, -13, 0}, {3, -1, 2, 0}, {2, -9, 10, -12},
	{-12, -8, -11, -9}, {-4, 3, -7, -5}, {13, 1, 5, -6}, {-10, 2, -7, -3},
	{0, -6, -5, 10}, {-1, 1, -1, -13}, {2, -1, 1, -13}, {-2, 5, -3, 13},
	{-4, 3, 2, 6}, {-1, 10, 0, 4}, {5, 3, 3, -7}, {3, 1, -5, 12},
	{9, -3, -11, 9}, {5, -2, 2, -1}, {-12, -11, 4, 1}, {-9, 2, -6, -1},
	{-5, -13, 8, 2}, {4, -4, -5, 0}, {3, -1, 7, -13}, {11, -3, -7, -11},
	{-4, -8, -4, -5}, {8, 5, -2, -5}, {11, -5, -6, -11}, {1, 8, 6, 8},
	{1, 5, 1, 4}, {-6, -1, -6, -5}, {11, 1, 2, -2}, {-2, 3, 10, 5},
	{-3, 3, 4, -4}, {3, -2, 8, 4}, {1, -2, 2, 8}, {4, -4, -1, -1},
	{1, 8, 2, 0}, {8, 0, -10, 0}, {11, -6, 3, 3}, {-7, -4, 1, -9},
	{3, 3, -7, -8}, {-2, -1, 1, 7}, {1, 5, -4, 2}, {-11, -4, 2, 5},
	{1, 3, -13, -4}, {-2, -8, -5, 5}, {-3, 2, 5, 7}, {1, -6, 2, 4},
	{2, 13, 3, 3}, {4, 0, 5, 3}, {-10, 0, 9, 3}, {10, 7, 13, -8},
	{0, -1, 3, -5}, {-1, 2, 1, 0}, {-2, -12, 3, -3}, {7, 0, 4, -13},
	{5, 12, -6, -8}, {3, 1, -9, 5}, {3, 4, -1, 5}, {3, -8, 8, 0},
	{-9, 8, 8, 1}, {2, -6, 2, 10}, {-9, 6, -13, -2}, {-4, -3, 4, 9},
	{-5, 13, 6, -4}, {5, 6, 3, 1}, {13, 4, -3, -4}, {-1, -2, -3, 9},
	{1, 6, 7, -9}, {-13, 3, -6, 10}, {13, 0, 7, 6}, {-1, -4, 8, -7},
	{1, 1, -3, 1}, {-9, -6, 6, 0}, {13, -8, 0, 11}, {-2, 0, 2, -6},
	{2, -2, -8, 8}, {3, -11, -6, 5}, {-1, -4, 2, 0}, {10, 4, 7, 1},
}
