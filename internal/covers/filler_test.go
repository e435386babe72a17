package covers

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/storage"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeCoverZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, body := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open("sqlite3", filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestFill_MixedBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	dir := t.TempDir()

	goodZip := filepath.Join(dir, "good.cbz")
	writeCoverZip(t, goodZip, map[string][]byte{"cover.png": pngBytes(t)})
	emptyZip := filepath.Join(dir, "no-images.cbz")
	writeCoverZip(t, emptyZip, map[string][]byte{"info.txt": []byte("words")})

	require.NoError(t, store.Books.Insert(ctx, &storage.Book{ID: "good", Path: goodZip}))
	require.NoError(t, store.Books.Insert(ctx, &storage.Book{ID: "gone", Path: filepath.Join(dir, "missing.cbz")}))
	require.NoError(t, store.Books.Insert(ctx, &storage.Book{ID: "imageless", Path: emptyZip}))

	outDir := filepath.Join(dir, "covers")
	filler := NewFiller(zerolog.Nop(), store, library.ValidImageExtensions, outDir)

	var calls int
	filler.OnBook = func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
	}

	require.NoError(t, filler.Fill(ctx))
	assert.Equal(t, 3, calls)

	// The readable book gets a cover file plus its delivery transcode.
	_, err := os.Stat(filepath.Join(outDir, "good.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "good.jpg.webp"))
	assert.NoError(t, err)

	good, err := store.Books.GetByID(ctx, "good")
	require.NoError(t, err)
	require.True(t, good.CoverURL.Valid)
	assert.Equal(t, filepath.Join(outDir, "good.jpg"), good.CoverURL.String)

	// The unreadable book is skipped, not fatal, and stays blank.
	gone, err := store.Books.GetByID(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, gone.CoverURL.Valid)

	// An image-less container extracts nothing but still records its
	// would-be cover URL.
	_, err = os.Stat(filepath.Join(outDir, "imageless.jpg"))
	assert.True(t, os.IsNotExist(err))
	imageless, err := store.Books.GetByID(ctx, "imageless")
	require.NoError(t, err)
	assert.True(t, imageless.CoverURL.Valid)
}

func TestFill_NoBlankCoversIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Books.Insert(ctx, &storage.Book{
		ID: "done", Path: "/library/done.cbz",
		CoverURL: coverURL("/covers/done.jpg.webp"),
	}))

	dir := t.TempDir()
	outDir := filepath.Join(dir, "covers")
	filler := NewFiller(zerolog.Nop(), store, library.ValidImageExtensions, outDir)
	filler.OnBook = func(done, total int) { t.Fatal("OnBook must not fire on an empty batch") }

	require.NoError(t, filler.Fill(ctx))

	// The pass creates nothing when there is nothing to do.
	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}
