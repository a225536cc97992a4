package googleEmbedding

import (
	"fmt"

	"google.golang.org/genai"
)

const (
	taskQuery    = "RETRIEVAL_QUERY"
	taskDocument = "RETRIEVAL_DOCUMENT"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// toVectors rejects partial answers: every input needs exactly one non-empty vector.
func toVectors(res *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if res == nil {
		return nil, fmt.Errorf("empty response")
	}
	if len(res.Embeddings) != want {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(res.Embeddings), want)
	}
	vectors := make([][]float32, 0, want)
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}
