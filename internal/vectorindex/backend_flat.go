//go:build !faiss

package vectorindex

// BackendName identifies the compiled-in index reader
const BackendName = "flat"

func openBackend(path string) (Searcher, error) {
	return ReadFlatFile(path)
}
