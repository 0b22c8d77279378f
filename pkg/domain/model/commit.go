package model

// Commit is a commit read from history for release analysis
type Commit struct {
	Hash    string
	Subject string
	Body    string
}

// ShortHash returns the 7-character abbreviated hash
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}
