package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"starlight-postoffice/internal/vectorstore"
)

const (
	// ScopeCommon tags passages that belong to no room.
	ScopeCommon = "common"

	maxChunkRunes  = 800
	memoriesPrefix = "memories_"
)

// IndexStore is the write side of the vector store.
type IndexStore interface {
	Has(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, records []vectorstore.Record) error
}

// Indexer embeds a text corpus into the vector store. Layout:
//
//	<root>/<room>/*.txt        room passages
//	<root>/memories_<room>.txt room passages
//	<root>/*.txt               shared passages
type Indexer struct {
	corpus   fs.FS
	embedder Embedder
	store    IndexStore
	log      *slog.Logger

	busy atomic.Bool
}

func NewIndexer(corpus fs.FS, embedder Embedder, store IndexStore, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{corpus: corpus, embedder: embedder, store: store, log: log}
}

// Busy reports whether a background run is in progress.
func (ix *Indexer) Busy() bool {
	return ix != nil && ix.busy.Load()
}

// Start runs the indexer in the background. It returns immediately; Busy is
// true until the run finishes.
func (ix *Indexer) Start(ctx context.Context) {
	if !ix.busy.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer ix.busy.Store(false)
		n, err := ix.Run(ctx)
		if err != nil {
			ix.log.Error("corpus indexing failed", "reason", "index_error", "err", err, "indexed", n)
			return
		}
		ix.log.Info("corpus indexing finished", "indexed", n)
	}()
}

// Run walks the corpus and stores every chunk not already present. It returns
// the number of newly stored chunks.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	if ix.corpus == nil {
		return 0, nil
	}

	indexed := 0
	err := fs.WalkDir(ix.corpus, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".txt" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := fs.ReadFile(ix.corpus, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		scope := scopeOf(p)
		var batch []vectorstore.Record
		for i, chunk := range Chunk(string(raw), maxChunkRunes) {
			id := recordID(scope, p, i, chunk)
			ok, err := ix.store.Has(ctx, id)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			vec, err := ix.embedder.Embed(ctx, chunk)
			if err != nil {
				ix.log.Warn("chunk embedding failed", "reason", "embedding_error", "source", p, "chunk", i, "err", err)
				continue
			}
			batch = append(batch, vectorstore.Record{
				ID: id, Scope: scope, SourceID: p, ChunkIndex: i, Content: chunk, Embedding: vec,
			})
		}
		if err := ix.store.Upsert(ctx, batch); err != nil {
			return err
		}
		indexed += len(batch)
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("retrieval: index corpus: %w", err)
	}
	return indexed, nil
}

func scopeOf(p string) string {
	dir, file := path.Split(p)
	if dir != "" {
		return strings.SplitN(strings.TrimSuffix(dir, "/"), "/", 2)[0]
	}
	if strings.HasPrefix(file, memoriesPrefix) {
		return strings.TrimSuffix(strings.TrimPrefix(file, memoriesPrefix), ".txt")
	}
	return ScopeCommon
}

func recordID(scope, source string, index int, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s/%s#%d-%s", scope, source, index, hex.EncodeToString(sum[:4]))
}

// Chunk splits text on blank lines and packs paragraphs into chunks of at
// most limit runes. A single oversized paragraph is cut on rune boundaries.
func Chunk(text string, limit int) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for utf8.RuneCountInString(para) > limit {
			flush()
			r := []rune(para)
			out = append(out, string(r[:limit]))
			para = strings.TrimSpace(string(r[limit:]))
		}
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+2+utf8.RuneCountInString(para) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return out
}
