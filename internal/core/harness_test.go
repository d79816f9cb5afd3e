package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hivefs/hivefs/internal/config"
	"github.com/hivefs/hivefs/internal/meta/metatest"
	"github.com/hivefs/hivefs/internal/metrics"
	"github.com/hivefs/hivefs/internal/volume"
	"github.com/hivefs/hivefs/pkg/types"
)

// env wires a registry to volume files in a temp dir and in-memory
// media images, with media-object allocation feeding the shared
// counters so leak assertions cover both layers.
type env struct {
	t        *testing.T
	dir      string
	counters *metrics.Counters
	opener   *metatest.Opener
	reg      *Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	counters := metrics.NewCounters(1000)
	opener := metatest.NewOpener(func(d int64) { counters.AddMetaObjects(d) })
	reg, err := NewRegistry(config.Default(), opener.Open,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCounters(counters))
	require.NoError(t, err)
	return &env{
		t:        t,
		dir:      t.TempDir(),
		counters: counters,
		opener:   opener,
		reg:      reg,
	}
}

func testHeader(fsid byte, volNo, numVols uint32) *volume.Header {
	return &volume.Header{
		Magic:         volume.MagicHBO,
		Version:       volume.VersionDefault,
		VolumeNo:      volNo,
		NumVolumes:    numVols,
		BlockSize:     4096,
		VolumeSize:    1 << 20,
		TotalSize:     uint64(numVols) << 20,
		AllocatorSize: 1 << 20,
		AllocatorFree: 1 << 19,
		FSID:          metatest.CID(fsid),
	}
}

func (e *env) writeVolume(name string, hdr *volume.Header) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, hdr.Encode(), 0o600))
	return path
}

// addDevice writes a single-volume device file and registers its media
// image, returning the volume path for mount specs.
func (e *env) addDevice(name string, fsid byte, labels ...metatest.Label) string {
	e.t.Helper()
	path := e.writeVolume(name, testHeader(fsid, 0, 1))
	e.opener.AddImage(metatest.CID(fsid), &metatest.Image{Labels: labels})
	return path
}

func (e *env) mount(spec, path string) (*MountPoint, error) {
	return e.reg.Mount(context.Background(), MountRequest{
		Spec:     spec,
		Path:     path,
		ReadOnly: true,
	})
}

func (e *env) mustMount(spec, path string) *MountPoint {
	e.t.Helper()
	mp, err := e.mount(spec, path)
	require.NoError(e.t, err)
	return mp
}

// assertClean verifies full teardown: no devices, no instances, all
// counters at zero, and a clean registry close.
func (e *env) assertClean() {
	e.t.Helper()
	require.Zero(e.t, e.reg.Devices(), "devices still open")
	cluster, sup := e.reg.Instances()
	require.Zero(e.t, cluster, "cluster instances left")
	require.Zero(e.t, sup, "super-root instances left")
	snap := e.counters.Snapshot()
	require.Zero(e.t, snap.FSObjects, "fs objects leaked")
	require.Zero(e.t, snap.MetaObjects, "meta objects leaked")
	require.Zero(e.t, snap.IOUnits, "io units leaked")
	require.NoError(e.t, e.reg.Close())
}

func dataLabel(cid byte) metatest.Label {
	return metatest.Label{Name: "DATA", ClusterID: metatest.CID(cid), Role: types.RoleMaster}
}
