package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqlStore"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqliteDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, name string) *sqlStore.Store {
	t.Helper()
	s, err := sqliteDB.Open(context.Background(), filepath.Join(t.TempDir(), name), sqlStore.WithClock(storetest.NewStepClock().Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrator_CopiesDocumentsChunksAndImages(t *testing.T) {
	ctx := context.Background()
	src := openSQLite(t, "src.db")
	dst := openSQLite(t, "dst.db")

	require.NoError(t, src.UpsertDocument(ctx,
		commonModels.Document{Filename: "a.pdf", PageCount: 2, TotalChars: 100},
		storetest.Chunks("a.pdf", 1, 1, 2), nil))
	require.NoError(t, src.UpsertDocument(ctx,
		commonModels.Document{Filename: "b.pdf", PageCount: 1, TotalChars: 50},
		storetest.Chunks("b.pdf", 1),
		[]commonModels.Image{{Filename: "b.pdf", PageNumber: 1, ImagePath: "b/page1_img1.png", ImageIndex: 1, Width: 80, Height: 60}}))

	// a stale copy in the target is replaced
	require.NoError(t, dst.UpsertDocument(ctx,
		commonModels.Document{Filename: "a.pdf", PageCount: 9},
		storetest.Chunks("a.pdf", 1, 2, 3, 4, 5), nil))

	report, err := New(src, dst).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Documents: 2, Chunks: 4, Images: 1}, report)

	srcStats, err := src.Stats(ctx)
	require.NoError(t, err)
	dstStats, err := dst.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, srcStats, dstStats)

	srcDocs, err := src.ListDocuments(ctx)
	require.NoError(t, err)
	dstDocs, err := dst.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, dstDocs, 2)
	for i := range srcDocs {
		assert.Equal(t, srcDocs[i].Filename, dstDocs[i].Filename)
		assert.True(t, srcDocs[i].AddedAt.Equal(dstDocs[i].AddedAt), "added date preserved for %s", srcDocs[i].Filename)
	}

	chunks, err := dst.Search(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "a.pdf", chunks[0].Filename)
	v, err := chunks[0].Vector()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5, -0.25}, v)

	images, err := dst.ImagesForPage(ctx, "b.pdf", 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "b/page1_img1.png", images[0].ImagePath)
}

func TestMigrator_SkipsUnreadableEmbeddings(t *testing.T) {
	ctx := context.Background()
	src := openSQLite(t, "src.db")
	dst := openSQLite(t, "dst.db")

	require.NoError(t, src.UpsertDocument(ctx,
		commonModels.Document{Filename: "a.pdf", PageCount: 1},
		storetest.Chunks("a.pdf", 1), nil))
	_, err := src.DB().ExecContext(ctx,
		`INSERT INTO pdf_contents (filename, page_number, chunk_text, embedding) VALUES ('a.pdf', 1, 'broken', 'not json')`)
	require.NoError(t, err)

	report, err := New(src, dst).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.SkippedChunks)

	doc, found, err := dst.GetDocument(ctx, "a.pdf")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, doc.TotalChunks)
}

func TestMigrator_EmptySource(t *testing.T) {
	report, err := New(openSQLite(t, "src.db"), openSQLite(t, "dst.db")).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}
