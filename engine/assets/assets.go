package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/glmesh/engine/assets/loaders"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
)

const changeBufferSize = 64

type AssetInfo struct {
	Name       string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// ChangeOp tells what happened to an indexed asset.
type ChangeOp uint8

const (
	AssetUpdated ChangeOp = iota + 1
	AssetRemoved
)

// AssetChange is emitted on Changes when a watched asset file is created,
// written or removed.
type AssetChange struct {
	Name string
	Path string
	Type metadata.ResourceType
	Op   ChangeOp
}

// AssetManager indexes asset files under a directory and keeps the index in
// sync with the filesystem. It never touches the graphics device; callers
// react to Changes on their render thread.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
	changes  chan AssetChange
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		changes:  make(chan AssetChange, changeBufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	// Register loaders
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.MeshLoader{})
	return am, nil
}

// Initialize indexes assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	am.mutex.Lock()
	am.started = true
	am.mutex.Unlock()
	go am.start()
	return nil
}

// Changes delivers asset changes. Events are dropped when nobody reads them
// fast enough.
func (am *AssetManager) Changes() <-chan AssetChange {
	return am.changes
}

// Close stops the watcher. Changes is closed once the watch loop exits.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	started := am.started
	am.mutex.Unlock()

	close(am.done)
	if !started {
		close(am.changes)
		return am.fsnotify.Close()
	}
	<-am.stopped
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Assets lists the indexed assets of the given type.
func (am *AssetManager) Assets(resourceType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		if a.Type == resourceType {
			out = append(out, a)
		}
	}
	return out
}

// LoadAsset loads an indexed asset through the loader registered for its type.
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType) (*metadata.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[name]
	if !exists || asset.Type != resourceType {
		am.mutex.Unlock()
		return nil, fmt.Errorf("asset not found: %s", name)
	}
	asset.LastLoaded = time.Now()
	am.assets[name] = asset // Update the loaded time
	am.mutex.Unlock()

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(asset.Path, resourceType)
}

// LoadMesh loads the mesh asset called name into a geometry config.
func (am *AssetManager) LoadMesh(name string) (*metadata.GeometryConfig, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeMesh)
	if err != nil {
		return nil, err
	}
	config, ok := res.Data.(*metadata.GeometryConfig)
	if !ok {
		return nil, fmt.Errorf("failed to cast resource '%s' to `*metadata.GeometryConfig`", name)
	}
	return config, nil
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer func() {
		close(am.changes)
		close(am.stopped)
	}()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn(err.Error())
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if info, ok := am.handleFileEvent(e.Name); ok {
					am.notify(AssetChange{Name: info.Name, Path: info.Path, Type: info.Type, Op: AssetUpdated})
				}
			}
			// Can't stat a deleted path, so try to drop it from both the
			// index and the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if info, ok := am.removeAsset(e.Name); ok {
					am.notify(AssetChange{Name: info.Name, Path: info.Path, Type: info.Type, Op: AssetRemoved})
				}
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(c AssetChange) {
	select {
	case am.changes <- c:
	default:
		core.LogWarn("asset change queue full, dropping change for '%s'", c.Name)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds on the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info := AssetInfo{
		Name:       loaders.MeshName(path),
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	am.assets[info.Name] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	for name, a := range am.assets {
		if a.Path == path {
			delete(am.assets, name)
			return a, true
		}
	}
	return AssetInfo{}, false
}

func determineAssetType(path string) metadata.ResourceType {
	switch {
	case strings.HasSuffix(path, loaders.MeshExtension):
		return metadata.ResourceTypeMesh
	default:
		return metadata.ResourceTypeNone
	}
}
