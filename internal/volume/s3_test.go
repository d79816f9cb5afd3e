package volume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hivefs/hivefs/pkg/types"
)

// stubS3 serves one object out of memory, honoring range requests the
// way the real service does.
type stubS3 struct {
	bucket string
	key    string
	data   []byte
}

func (s *stubS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if aws.ToString(in.Bucket) != s.bucket || aws.ToString(in.Key) != s.key {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(s.data)))}, nil
}

func (s *stubS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if aws.ToString(in.Bucket) != s.bucket || aws.ToString(in.Key) != s.key {
		return nil, errors.New("NoSuchKey")
	}
	var lo, hi int64
	if _, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &lo, &hi); err != nil {
		return nil, fmt.Errorf("bad range %q: %w", aws.ToString(in.Range), err)
	}
	if lo < 0 || hi >= int64(len(s.data)) || lo > hi {
		return nil, errors.New("InvalidRange")
	}
	body := s.data[lo : hi+1]
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestIsS3Path(t *testing.T) {
	if !IsS3Path("s3://bucket/vol0") {
		t.Error("s3 path not recognized")
	}
	if IsS3Path("/dev/vol0") {
		t.Error("local path misclassified")
	}
}

func TestOpenS3(t *testing.T) {
	hdr := validHeader()
	stub := &stubS3{bucket: "vols", key: "images/vol0", data: hdr.Encode()}

	h, err := openS3(context.Background(), stub, "s3://vols/images/vol0")
	if err != nil {
		t.Fatalf("openS3: %v", err)
	}
	defer h.Close()

	if h.Size() != HeaderSize {
		t.Fatalf("size %d", h.Size())
	}
	if h.Path() != "s3://vols/images/vol0" {
		t.Fatalf("path %q", h.Path())
	}
	if h.DeviceID() == 0 {
		t.Fatal("zero device id")
	}

	got, err := ReadHeader(h)
	if err != nil {
		t.Fatalf("ReadHeader over ranged reads: %v", err)
	}
	if *got != *hdr {
		t.Fatalf("header mismatch: %+v", got)
	}

	// Partial tail read.
	buf := make([]byte, 64)
	n, err := h.ReadAt(buf, int64(HeaderSize-32))
	if n != 32 || !errors.Is(err, io.EOF) {
		t.Fatalf("tail read n=%d err=%v", n, err)
	}

	if _, err := h.ReadAt(buf, int64(HeaderSize)); !errors.Is(err, io.EOF) {
		t.Fatalf("read past end: %v", err)
	}
}

func TestOpenS3BadPaths(t *testing.T) {
	stub := &stubS3{bucket: "vols", key: "vol0", data: []byte("x")}
	for _, path := range []string{"vol0", "s3://", "s3://vols", "s3://vols/"} {
		if _, err := openS3(context.Background(), stub, path); !errors.Is(err, types.ErrInvalidArgument) {
			t.Errorf("path %q: got %v, want ErrInvalidArgument", path, err)
		}
	}
	if _, err := openS3(context.Background(), stub, "s3://vols/absent"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("absent object: got %v, want ErrNotFound", err)
	}
}

func TestPathDeviceID(t *testing.T) {
	a := pathDeviceID("s3://vols/vol0")
	b := pathDeviceID("s3://vols/vol1")
	if a == b {
		t.Fatal("distinct object paths must get distinct ids")
	}
	if a != pathDeviceID("s3://vols/vol0") {
		t.Fatal("device id not stable")
	}
}
