// Package memory retrieves past conversation fragments by embedding
// similarity and records new ones after each turn.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dhleesep9/gayoon/internal/dialogue"
	gerrors "github.com/dhleesep9/gayoon/internal/errors"
	"github.com/dhleesep9/gayoon/internal/session/storage"
)

const (
	// SimilarityThreshold filters out fragments that barely relate to
	// the query. Similarity is 1/(1+d) over L2 distance, so 0.45 keeps
	// reasonably close neighbors only.
	SimilarityThreshold = 0.45
	// TopK caps the fragments injected into a dialogue prompt.
	TopK = 5
)

// Retriever implements dialogue.Retriever over a MemoryStore.
type Retriever struct {
	store    storage.MemoryStore
	embedder dialogue.Embedder
	now      func() time.Time
	newID    func() string
}

// NewRetriever builds a retriever. now and newID stamp recorded
// fragments and default to the wall clock and a random id.
func NewRetriever(store storage.MemoryStore, embedder dialogue.Embedder, now func() time.Time, newID func() string) *Retriever {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = randomID
	}
	return &Retriever{store: store, embedder: embedder, now: now, newID: newID}
}

func randomID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("frag-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// Retrieve returns up to TopK fragments whose similarity to the query
// meets the threshold, best first.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string) ([]dialogue.Fragment, error) {
	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.ListMemoryFragments(ctx, userID)
	if err != nil {
		return nil, gerrors.NewExternal(gerrors.CodeRetrievalUnavailable, err)
	}

	scored := make([]dialogue.Fragment, 0, len(stored))
	for _, frag := range stored {
		score := Similarity(queryVec, frag.Embedding)
		if score < SimilarityThreshold {
			continue
		}
		scored = append(scored, dialogue.Fragment{Text: frag.Text, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > TopK {
		scored = scored[:TopK]
	}
	return scored, nil
}

// Record embeds and stores one conversation snippet.
func (r *Retriever) Record(ctx context.Context, userID, text string, metadata map[string]string) error {
	vec, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		return err
	}
	frag := storage.MemoryFragment{
		ID:        r.newID(),
		UserID:    userID,
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
		CreatedAt: r.now(),
	}
	if err := r.store.AppendMemoryFragment(ctx, frag); err != nil {
		return gerrors.NewExternal(gerrors.CodeRetrievalUnavailable, err)
	}
	return nil
}

// Similarity maps L2 distance to (0, 1]: identical vectors score 1,
// mismatched lengths score 0.
func Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}
