package transfer

type KeywordData struct {
	Keyword   string `json:"keyword"`
	Relevance int    `json:"relevance"`
}

type GenerateContentRequest struct {
	Topic       TopicData `json:"topic"`
	ContentType string    `json:"contentType"`
}

type TopicData struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

type ExtractKeywordsRequest struct {
	Topic string `json:"topic"`
}

// GenerateResult is a tagged outcome: Fallback marks content that came from
// the static examples because the model call failed or was not configured.
type GenerateResult struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}
