// Package oracle talks to the external ranking service that orders catalog
// items against a free-text interest profile.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxRecommendations is the most ids the oracle is asked for.
const MaxRecommendations = 5

var (
	// ErrUnavailable means no credential is configured. It is a normal state.
	ErrUnavailable = errors.New("ranking oracle unavailable")
	// ErrMalformedResponse means the oracle answered but the payload failed validation.
	ErrMalformedResponse = errors.New("malformed ranking response")
)

// Candidate is the reduced projection of an item sent to the oracle.
type Candidate struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Tags        string  `json:"tags"`
	Price       float64 `json:"price"`
}

// Ranker asks the oracle to rank candidates. Rank returns the raw structured
// payload so callers validate it themselves.
type Ranker interface {
	Enabled() bool
	Rank(ctx context.Context, interests string, candidates []Candidate) (json.RawMessage, error)
}

// BuildPrompt renders the ranking instruction for interests and candidates.
func BuildPrompt(interests string, candidates []Candidate) (string, error) {
	list, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString("Based on the following user interests, recommend items from the list provided.\n")
	fmt.Fprintf(&b, "User Interests: %q\n\n", interests)
	b.WriteString("Available Items:\n")
	b.Write(list)
	b.WriteString("\n\nAnalyze the user's interests and the item details (name, description, tags).\n")
	fmt.Fprintf(&b, "Return a JSON array of the top %d most relevant item IDs, ordered from most to least relevant.\n", MaxRecommendations)
	return b.String(), nil
}
