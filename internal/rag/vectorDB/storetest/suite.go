// Package storetest holds the behaviour every vectorDB.Store must share.
// Backend packages run it against their own database.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns an empty store that writes timestamps from clock.
type Opener func(t *testing.T, clock vectorDB.Clock) vectorDB.Store

// StepClock starts at a fixed instant and moves one second per call.
type StepClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStepClock() *StepClock {
	return &StepClock{now: time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func Chunks(filename string, pages ...int) []commonModels.Chunk {
	out := make([]commonModels.Chunk, 0, len(pages))
	for i, p := range pages {
		out = append(out, commonModels.Chunk{
			PageNumber: p,
			Text:       filename + " chunk text " + string(rune('A'+i)),
			Embedding:  []float32{float32(i + 1), 0.5, -0.25},
		})
	}
	return out
}

func Run(t *testing.T, open Opener) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s := open(t, NewStepClock().Now)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, commonModels.Stats{}, stats)

		docs, err := s.ListDocuments(ctx)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)

		chunks, err := s.Search(ctx)
		require.NoError(t, err)
		assert.Empty(t, chunks)

		_, found, err := s.GetDocument(ctx, "missing.pdf")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, s.Ping(ctx))
	})

	t.Run("two pages three chunks", func(t *testing.T) {
		s := open(t, NewStepClock().Now)
		doc := commonModels.Document{Filename: "network.pdf", PageCount: 2, TotalChars: 1800}
		chunks := Chunks("network.pdf", 1, 1, 2)

		require.NoError(t, s.UpsertDocument(ctx, doc, chunks, nil))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, commonModels.Stats{DocumentCount: 1, TotalPages: 2, TotalChunks: 3}, stats)

		got, found, err := s.GetDocument(ctx, "network.pdf")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 3, got.TotalChunks)
		assert.Equal(t, 1800, got.TotalChars)
		assert.Equal(t, time.UTC, got.AddedAt.Location())

		stored, err := s.Search(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		for i, c := range stored {
			assert.Equal(t, "network.pdf", c.Filename)
			assert.Equal(t, chunks[i].PageNumber, c.PageNumber)
			assert.Equal(t, chunks[i].Text, c.Text)
			v, err := c.Vector()
			require.NoError(t, err)
			assert.Equal(t, chunks[i].Embedding, v)
		}
	})

	t.Run("reingest replaces chunks", func(t *testing.T) {
		s := open(t, NewStepClock().Now)
		doc := commonModels.Document{Filename: "os.pdf", PageCount: 3, TotalChars: 4000}

		require.NoError(t, s.UpsertDocument(ctx, doc, Chunks("os.pdf", 1, 1, 2, 3, 3), nil))
		require.NoError(t, s.UpsertDocument(ctx, doc, Chunks("os.pdf", 1, 2, 3), nil))

		docs, err := s.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, 3, docs[0].TotalChunks)

		stored, err := s.Search(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 3)
	})

	t.Run("failed write keeps previous version", func(t *testing.T) {
		s := open(t, NewStepClock().Now)
		doc := commonModels.Document{Filename: "db.pdf", PageCount: 1, TotalChars: 10}
		require.NoError(t, s.UpsertDocument(ctx, doc, Chunks("db.pdf", 1, 1), nil))

		bad := Chunks("db.pdf", 1)
		bad[0].Embedding = nil
		err := s.UpsertDocument(ctx, doc, bad, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ragErrors.ErrStorageWrite)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalChunks)
	})

	t.Run("list is newest first", func(t *testing.T) {
		clock := NewStepClock()
		s := open(t, clock.Now)
		for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
			require.NoError(t, s.UpsertDocument(ctx, commonModels.Document{Filename: name, PageCount: 1}, Chunks(name, 1), nil))
		}
		// same instant for two documents: the later row wins the tie
		same := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.UpsertDocument(ctx, commonModels.Document{Filename: "d.pdf", AddedAt: same}, Chunks("d.pdf", 1), nil))
		require.NoError(t, s.UpsertDocument(ctx, commonModels.Document{Filename: "e.pdf", AddedAt: same}, Chunks("e.pdf", 1), nil))

		docs, err := s.ListDocuments(ctx)
		require.NoError(t, err)
		var names []string
		for _, d := range docs {
			names = append(names, d.Filename)
		}
		assert.Equal(t, []string{"e.pdf", "d.pdf", "c.pdf", "b.pdf", "a.pdf"}, names)
		assert.True(t, docs[0].AddedAt.Equal(same))
	})

	t.Run("images", func(t *testing.T) {
		s := open(t, NewStepClock().Now)
		doc := commonModels.Document{Filename: "slides.pdf", PageCount: 2}
		images := []commonModels.Image{
			{PageNumber: 2, ImagePath: "slides/p2_2.png", ImageIndex: 2, Width: 300, Height: 200},
			{PageNumber: 2, ImagePath: "slides/p2_1.png", ImageIndex: 1, Width: 640, Height: 480},
			{PageNumber: 1, ImagePath: "slides/p1_1.png", ImageIndex: 1, Width: 100, Height: 100},
		}
		require.NoError(t, s.UpsertDocument(ctx, doc, Chunks("slides.pdf", 1, 2), images))

		page2, err := s.ImagesForPage(ctx, "slides.pdf", 2)
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.Equal(t, 1, page2[0].ImageIndex)
		assert.Equal(t, "slides/p2_1.png", page2[0].ImagePath)
		assert.Equal(t, 640, page2[0].Width)
		assert.Equal(t, 2, page2[1].ImageIndex)

		all, err := s.DocumentImages(ctx, "slides.pdf")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		none, err := s.ImagesForPage(ctx, "slides.pdf", 9)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		// reingest without images drops the old rows, SaveImages adds new ones
		require.NoError(t, s.UpsertDocument(ctx, doc, Chunks("slides.pdf", 1, 2), nil))
		all, err = s.DocumentImages(ctx, "slides.pdf")
		require.NoError(t, err)
		assert.Empty(t, all)

		require.NoError(t, s.SaveImages(ctx, "slides.pdf", images[2:]))
		require.NoError(t, s.SaveImages(ctx, "slides.pdf", images[:1]))
		all, err = s.DocumentImages(ctx, "slides.pdf")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "slides/p2_2.png", all[0].ImagePath)
	})

	t.Run("search during replace sees one version", func(t *testing.T) {
		s := open(t, NewStepClock().Now)
		doc := commonModels.Document{Filename: "lecture.pdf", PageCount: 1}
		sizes := map[string]int{"old": 500, "new": 300}
		versions := []string{"old", "new"}
		chunksOf := map[string][]commonModels.Chunk{}
		for _, v := range versions {
			chunks := make([]commonModels.Chunk, sizes[v])
			for i := range chunks {
				chunks[i] = commonModels.Chunk{
					PageNumber: 1,
					Text:       fmt.Sprintf("%s %d", v, i),
					Embedding:  []float32{float32(i), 1},
				}
			}
			chunksOf[v] = chunks
		}
		require.NoError(t, s.UpsertDocument(ctx, doc, chunksOf["old"], nil))

		var (
			wg       sync.WaitGroup
			done     = make(chan struct{})
			reads    int
			readErr  error
			mixtures []string
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				stored, err := s.Search(ctx)
				if err != nil {
					readErr = err
					return
				}
				reads++
				if problem := singleVersion(stored, doc.Filename, sizes); problem != "" {
					mixtures = append(mixtures, problem)
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()

		for i := 0; i < 30; i++ {
			if !assert.NoError(t, s.UpsertDocument(ctx, doc, chunksOf[versions[(i+1)%2]], nil)) {
				break
			}
		}
		close(done)
		wg.Wait()

		require.NoError(t, readErr)
		assert.Positive(t, reads)
		assert.Empty(t, mixtures)
	})
}

// singleVersion describes what is wrong when the chunks stored for filename
// are not exactly one complete version. Chunk text starts with the version name.
func singleVersion(stored []commonModels.StoredChunk, filename string, sizes map[string]int) string {
	counts := map[string]int{}
	for _, c := range stored {
		if c.Filename != filename {
			continue
		}
		version, _, _ := strings.Cut(c.Text, " ")
		counts[version]++
	}
	if len(counts) != 1 {
		return fmt.Sprintf("saw versions %v", counts)
	}
	for version, n := range counts {
		if n != sizes[version] {
			return fmt.Sprintf("saw %d of %d %s chunks", n, sizes[version], version)
		}
	}
	return ""
}
