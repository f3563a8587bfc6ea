// api/schemas/http.go
package schemas

// AutoGenerateRequest asks the server to analyze a page autonomously and
// generate scenarios from whatever the engine managed to execute.
type AutoGenerateRequest struct {
	URL      string `json:"url" binding:"required"`
	Headless *bool  `json:"headless,omitempty"`
	Model    string `json:"model,omitempty"`
}

// CustomTestRequest carries a plain-text test script to execute and convert.
type CustomTestRequest struct {
	URL       string `json:"url" binding:"required"`
	TestSteps string `json:"test_steps" binding:"required"`
	Model     string `json:"model,omitempty"`
	// Execute runs the steps against the live page before generating Gherkin.
	// When false only the text conversion happens.
	Execute bool `json:"execute,omitempty"`
}

// GenerationResponse is the common reply for both generation endpoints.
type GenerationResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	GherkinContent string         `json:"gherkin_content"`
	OutputFile     string         `json:"output_file"`
	Timestamp      string         `json:"timestamp"`
	Metadata       map[string]any `json:"metadata"`
}

// FeatureFileInfo describes one generated feature file on disk.
type FeatureFileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// FileListResponse lists generated feature files, newest first.
type FileListResponse struct {
	Files []FeatureFileInfo `json:"files"`
	Count int               `json:"count"`
}
