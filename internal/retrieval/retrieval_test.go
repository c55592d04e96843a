package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"starlight-postoffice/internal/vectorstore"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

type fakeStore struct {
	byScope map[string][]vectorstore.Neighbor
	count   int
	asked   []int

	records []vectorstore.Record
	has     map[string]bool
}

func (f *fakeStore) Nearest(_ context.Context, _ []float32, scope string, n int) ([]vectorstore.Neighbor, error) {
	f.asked = append(f.asked, n)
	return f.byScope[scope], nil
}

func (f *fakeStore) Count(context.Context) (int, error) { return f.count, nil }

func (f *fakeStore) Has(_ context.Context, id string) (bool, error) { return f.has[id], nil }

func (f *fakeStore) Upsert(_ context.Context, records []vectorstore.Record) error {
	f.records = append(f.records, records...)
	return nil
}

func neighbor(content, scope string, distance float64) vectorstore.Neighbor {
	return vectorstore.Neighbor{Record: vectorstore.Record{Content: content, Scope: scope, SourceID: content + ".txt"}, Distance: distance}
}

func TestSimilarity_StrictlyDecreasingInUnitInterval(t *testing.T) {
	prev := 2.0
	for _, d := range []float64{0, 0.01, 0.5, 1, 2, 10, 1e6} {
		s := Similarity(d)
		require.Greater(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
		require.Less(t, s, prev)
		prev = s
	}
	require.Equal(t, 1.0, Similarity(0))
	require.Equal(t, 0.5, Similarity(1))
}

func TestRetriever_FiltersSortsAndTruncates(t *testing.T) {
	store := &fakeStore{count: 4, byScope: map[string][]vectorstore.Neighbor{
		"regret": {
			neighbor("b", "regret", 0.5), // 0.667
			neighbor("a", "regret", 0.1), // 0.909
			neighbor("c", "regret", 1.0), // 0.5
			neighbor("d", "regret", 3.0), // 0.25
		},
	}}
	r := NewRetriever(&fakeEmbedder{}, store, Options{TopK: 2, Threshold: 0.45, FallbackThreshold: 0.3})

	got, err := r.Retrieve(context.Background(), "query", "regret")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].Text)
	require.Equal(t, "b", got[1].Text)
	require.Equal(t, "b.txt", got[1].SourceID)
	require.Equal(t, []int{6}, store.asked, "max(3*topK, 6) candidates")
}

func TestRetriever_ScopedMissFallsBackUnscoped(t *testing.T) {
	store := &fakeStore{count: 2, byScope: map[string][]vectorstore.Neighbor{
		"love": {neighbor("weak", "love", 1.5)}, // 0.4 < 0.45
		"":     {neighbor("weak", "love", 1.5), neighbor("other", "dream", 5)},
	}}
	r := NewRetriever(&fakeEmbedder{}, store, Options{TopK: 3, Threshold: 0.45, FallbackThreshold: 0.35})

	got, err := r.Retrieve(context.Background(), "q", "love")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "weak", got[0].Text)
	require.Equal(t, []int{9, 9}, store.asked)
}

func TestRetriever_Unavailable(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeStore{}, Options{TopK: 3})
	_, err := r.Retrieve(context.Background(), "q", "love")
	require.ErrorIs(t, err, ErrUnavailable)

	var nilRetriever *Retriever
	_, err = nilRetriever.Retrieve(context.Background(), "q", "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCachedEmbedder_Memoizes(t *testing.T) {
	inner := &fakeEmbedder{}
	c, err := NewCachedEmbedder(inner, 2)
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = c.Embed(ctx, "one")
	_, _ = c.Embed(ctx, "one")
	require.Equal(t, 1, inner.calls)

	_, _ = c.Embed(ctx, "two")
	_, _ = c.Embed(ctx, "three")
	require.Equal(t, 2, c.Len(), "bounded")

	_, _ = c.Embed(ctx, "one")
	require.Equal(t, 4, inner.calls, "evicted entry is fetched again")
}

func TestCachedEmbedder_DoesNotCacheErrors(t *testing.T) {
	inner := &fakeEmbedder{err: errors.New("down")}
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "x")
	require.Error(t, err)
	require.Zero(t, c.Len())
}

func TestIndexer_ScopesAndSkipsExisting(t *testing.T) {
	corpus := fstest.MapFS{
		"regret/train.txt":  {Data: []byte("first paragraph\n\nsecond paragraph")},
		"memories_love.txt": {Data: []byte("a love memory")},
		"owl_character.txt": {Data: []byte("the owl keeps the letters")},
		"dream/notes.md":    {Data: []byte("ignored")},
		"anxiety/storm.txt": {Data: []byte("   ")},
	}
	store := &fakeStore{has: map[string]bool{}}
	ix := NewIndexer(corpus, &fakeEmbedder{}, store, nil)

	n, err := ix.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	scopes := map[string]string{}
	for _, r := range store.records {
		scopes[r.SourceID] = r.Scope
		store.has[r.ID] = true
	}
	require.Equal(t, "regret", scopes["regret/train.txt"])
	require.Equal(t, "love", scopes["memories_love.txt"])
	require.Equal(t, ScopeCommon, scopes["owl_character.txt"])

	n, err = ix.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, n, "already indexed chunks are skipped")
	require.False(t, ix.Busy())
}

func TestChunk(t *testing.T) {
	require.Equal(t, []string{"a\n\nb"}, Chunk("a\n\nb", 10))
	require.Equal(t, []string{"aaaa", "bbbb"}, Chunk("aaaa\n\nbbbb", 6))

	long := strings.Repeat("가", 25)
	got := Chunk(long, 10)
	require.Equal(t, []string{strings.Repeat("가", 10), strings.Repeat("가", 10), strings.Repeat("가", 5)}, got)
	require.Empty(t, Chunk("\n\n  \n\n", 10))
}
