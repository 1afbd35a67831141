package vectorindex

// InnerProduct computes the dot product of two equal-length vectors
func InnerProduct(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// L2Squared computes the squared euclidean distance, as FAISS reports it for METRIC_L2
func L2Squared(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
