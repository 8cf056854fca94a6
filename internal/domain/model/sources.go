package model

// Sources names the dataset files a snapshot is fitted from. An empty
// InteractionsPath disables the collaborative signal.
type Sources struct {
	FreelancersPath  string `json:"freelancers_path"`
	InteractionsPath string `json:"interactions_path,omitempty"`
}
