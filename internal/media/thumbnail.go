package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	_ "image/gif"
	_ "image/png"

	"storybook/backend/internal/config"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Thumbnailer renders portrait JPEG previews of images and videos.
type Thumbnailer struct {
	ffmpeg  string
	width   int
	height  int
	quality int
}

func NewThumbnailer(cfg config.ThumbnailConfig) *Thumbnailer {
	bin := cfg.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Thumbnailer{
		ffmpeg:  bin,
		width:   config.ThumbnailWidth,
		height:  config.ThumbnailHeight,
		quality: config.ThumbnailQuality,
	}
}

// FromImage decodes raw and returns the center-cropped, resized JPEG.
func (t *Thumbnailer) FromImage(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	src := cropRect(img.Bounds(), t.width, t.height)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// FromVideo grabs the frame at the one second mark, or the first frame for
// shorter clips, and thumbnails it.
func (t *Thumbnailer) FromVideo(ctx context.Context, raw []byte, ext string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "thumb-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in"+ext)
	if err := os.WriteFile(in, raw, 0o600); err != nil {
		return nil, err
	}

	var frame []byte
	for _, at := range []time.Duration{config.VideoFrameOffset, 0} {
		frame, err = t.grab(ctx, in, filepath.Join(dir, "frame.jpg"), at)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return t.FromImage(frame)
}

func (t *Thumbnailer) grab(ctx context.Context, in, out string, at time.Duration) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-y", "-loglevel", "error",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", in,
		"-frames:v", "1",
		out)
	if msg, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg at %s: %w: %s", at, err, bytes.TrimSpace(msg))
	}
	frame, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("ffmpeg at %s produced no frame", at)
	}
	return frame, nil
}

// cropRect returns the largest centered rectangle of b with the w:h aspect.
func cropRect(b image.Rectangle, w, h int) image.Rectangle {
	bw, bh := b.Dx(), b.Dy()
	cw, ch := bw, bw*h/w
	if ch > bh {
		cw, ch = bh*w/h, bh
	}
	x0 := b.Min.X + (bw-cw)/2
	y0 := b.Min.Y + (bh-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}
