package checkpoint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/keygraph/blobstore"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/model"
)

const (
	// CurrentName is the pointer blob naming the latest checkpoint.
	CurrentName = "CURRENT"
	// Prefix is the blob prefix of checkpoint artifacts.
	Prefix = "checkpoints/"
	// Ext is the artifact file extension.
	Ext = ".kgc"
)

// ErrNoCheckpoint is returned by Latest and Current before the first Save.
var ErrNoCheckpoint = errors.New("checkpoint: no checkpoint committed")

// StoreOptions configures a Store.
type StoreOptions struct {
	Encoding    Encoding
	Compression Compression
	// Resources throttles artifact writes. Nil means unlimited.
	Resources *resource.Controller
}

// WithStoreEncoding sets the encoding used by Save.
func WithStoreEncoding(e Encoding) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Encoding = e }
}

// WithStoreCompression sets the compression used by Save.
func WithStoreCompression(c Compression) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Compression = c }
}

// WithResources throttles Save through rc.
func WithResources(rc *resource.Controller) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Resources = rc }
}

// Store saves and loads checkpoints in a blob store.
type Store struct {
	blobs blobstore.BlobStore
	opts  StoreOptions
}

// NewStore creates a Store over blobs.
func NewStore(blobs blobstore.BlobStore, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{Encoding: EncodingPositional, Compression: CompressionNone}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{blobs: blobs, opts: opts}
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore { return s.blobs }

// Save encodes snap into a new artifact and makes it CURRENT.
// The artifact is fully encoded before anything is written, so an invalid
// snapshot never produces a blob.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap, WithEncoding(s.opts.Encoding), WithCompression(s.opts.Compression)); err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	name := Prefix + id.String() + Ext

	if err := s.write(ctx, name, &buf); err != nil {
		return "", fmt.Errorf("checkpoint: write %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, CurrentName, []byte(name)); err != nil {
		return "", fmt.Errorf("checkpoint: commit %s: %w", name, err)
	}
	return name, nil
}

func (s *Store) write(ctx context.Context, name string, buf *bytes.Buffer) error {
	wb, err := s.blobs.Create(ctx, name)
	if err != nil {
		return err
	}

	w := resource.NewRateLimitedWriter(ctx, wb, s.opts.Resources)
	if _, err := buf.WriteTo(w); err != nil {
		abort(wb)
		return err
	}
	if err := wb.Sync(); err != nil {
		abort(wb)
		return err
	}
	return wb.Close()
}

func abort(wb blobstore.WritableBlob) {
	if a, ok := wb.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = wb.Close()
}

// Load decodes the named checkpoint.
func (s *Store) Load(ctx context.Context, name string) (*model.Snapshot, error) {
	b, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", name, err)
	}
	defer b.Close()

	r, closeFn, err := reader(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", name, err)
	}
	defer closeFn()

	snap, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load %s: %w", name, err)
	}
	return snap, nil
}

// reader reads mapped blobs in place and streams the others.
func reader(ctx context.Context, b blobstore.Blob) (io.Reader, func(), error) {
	if m, ok := b.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, nil, err
		}
		return bytes.NewReader(data), func() {}, nil
	}
	if b.Size() == 0 {
		return bytes.NewReader(nil), func() {}, nil
	}
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewReader(rc), func() { _ = rc.Close() }, nil
}

// Info describes a stored artifact without decoding its body.
type Info struct {
	Name   string
	Size   int64
	Header Header
}

// Stat reads the header of the named checkpoint.
func (s *Store) Stat(ctx context.Context, name string) (*Info, error) {
	b, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", name, err)
	}
	defer b.Close()

	buf := make([]byte, HeaderSize)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	h, err := ReadHeader(bytes.NewReader(buf[:n]))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: stat %s: %w", name, err)
	}
	return &Info{Name: name, Size: b.Size(), Header: *h}, nil
}

// Current returns the name of the committed checkpoint.
func (s *Store) Current(ctx context.Context) (string, error) {
	data, err := blobstore.Get(ctx, s.blobs, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", ErrNoCheckpoint, err)
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoCheckpoint
	}
	return name, nil
}

// Latest loads the committed checkpoint.
func (s *Store) Latest(ctx context.Context) (string, *model.Snapshot, error) {
	name, err := s.Current(ctx)
	if err != nil {
		return "", nil, err
	}
	snap, err := s.Load(ctx, name)
	if err != nil {
		return "", nil, err
	}
	return name, snap, nil
}

// List returns all stored checkpoint names in sorted order.
// Names embed a time-ordered UUID, so the order is also creation order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx, Prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, Ext) {
			out = append(out, n)
		}
	}
	return out, nil
}
