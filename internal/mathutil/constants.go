package mathutil

// Eps is the tolerance used for near-zero float32 comparisons.
const Eps = 1e-6
