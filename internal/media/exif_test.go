package media

import (
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseExifTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "full value",
			input: "2021:09:19 14:05:40",
			want:  time.Date(2021, 9, 19, 14, 5, 40, 0, time.UTC),
		},
		{
			name:  "truncated seconds are padded",
			input: "2013:07:04 21:02:5",
			want:  time.Date(2013, 7, 4, 21, 2, 50, 0, time.UTC),
		},
		{
			name:  "trailing NUL and spaces",
			input: "2020:01:02 03:04:05\x00",
			want:  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:  "extra text is cut",
			input: "2020:01:02 03:04:05.123",
			want:  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not a date",
			wantErr: true,
		},
		{
			name:    "all zero",
			input:   "0000:00:00 00:00:00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExifTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseExifTime(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseExifTime(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ParseExifTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadCaptureNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewExifReader().ReadCapture(path)
	if !errors.Is(err, ErrNoCapture) {
		t.Errorf("ReadCapture(video) error = %v, want ErrNoCapture", err)
	}
}

func TestReadCaptureWithoutExif(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = NewExifReader().ReadCapture(path)
	if !errors.Is(err, ErrNoCapture) {
		t.Errorf("ReadCapture(no exif) error = %v, want ErrNoCapture", err)
	}
}

func TestReadCaptureMissingFile(t *testing.T) {
	_, err := NewExifReader().ReadCapture(filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
