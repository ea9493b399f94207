package media

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderRoundTrip(t *testing.T) {
	root := t.TempDir()
	u := NewLocalUploader(root, "http://cdn.test/media/")

	ref, err := u.Upload(context.Background(), Object{
		Filename:    "intro.MP4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("not really a video"),
	}, KindVideo)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.PublicID, "course_videos/"))
	assert.Equal(t, "http://cdn.test/media/"+ref.PublicID, ref.URL)
	assert.Equal(t, int64(len("not really a video")), ref.Size)
	assert.Equal(t, "mp4", ref.Format)

	stored := filepath.Join(root, filepath.FromSlash(ref.PublicID))
	assert.FileExists(t, stored)

	require.NoError(t, u.Delete(context.Background(), ref.PublicID))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalUploaderRejectsEscapingDelete(t *testing.T) {
	u := NewLocalUploader(t.TempDir(), "")
	assert.Error(t, u.Delete(context.Background(), "../outside.txt"))
}

func TestFolders(t *testing.T) {
	assert.Equal(t, "course_images", KindImage.Folder())
	assert.Equal(t, "course_videos", KindVideo.Folder())
	assert.Equal(t, "course_files", KindRaw.Folder())
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "pdf", formatOf("Notes.PDF", "application/pdf"))
	assert.Equal(t, "quicktime", formatOf("clip", "video/quicktime"))
	assert.Equal(t, "", formatOf("clip", ""))
}

func pngObject(t *testing.T, w, h int) Object {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return Object{Filename: "cover.png", ContentType: "image/png", Size: int64(buf.Len()), Body: &buf}
}

func TestNormalizeImageDownscalesLargeCovers(t *testing.T) {
	out, err := NormalizeImage(pngObject(t, 400, 100), 200)
	require.NoError(t, err)

	img, err := imaging.Decode(out.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestNormalizeImageKeepsSmallCovers(t *testing.T) {
	in := pngObject(t, 50, 40)
	size := in.Size

	out, err := NormalizeImage(in, 200)
	require.NoError(t, err)
	assert.Equal(t, size, out.Size)
}

func TestNormalizeImageRejectsOtherTypes(t *testing.T) {
	_, err := NormalizeImage(Object{ContentType: "image/gif", Body: strings.NewReader("GIF89a")}, 200)
	assert.Error(t, err)
	assert.False(t, IsSupportedImage("image/gif"))
	assert.True(t, IsSupportedImage("image/jpeg"))
}
