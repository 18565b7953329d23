// monitor.go
package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听数据目录，目标文件被写入或替换时回调
type FileMonitor struct {
	watchDir string
	targets  map[string]bool
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  *time.Timer
}

// NewFileMonitor 监听dir目录，names为空时目录下任何文件变化都会触发
func NewFileMonitor(dir string, names ...string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	targets := make(map[string]bool, len(names))
	for _, n := range names {
		targets[filepath.Base(n)] = true
	}

	return &FileMonitor{
		watchDir: dir,
		targets:  targets,
		watcher:  watcher,
	}, nil
}

// Watch 阻塞直到ctx结束或watcher出错
// 同一debounce窗口内的多次变化只触发一次handler
func (m *FileMonitor) Watch(ctx context.Context, debounce time.Duration, handler func(string)) error {
	defer m.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.interested(event) {
				continue
			}
			m.schedule(debounce, event.Name, handler)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) interested(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if len(m.targets) == 0 {
		return true
	}
	return m.targets[filepath.Base(event.Name)]
}

func (m *FileMonitor) schedule(debounce time.Duration, name string, handler func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = time.AfterFunc(debounce, func() { handler(name) })
}

func (m *FileMonitor) stopPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

// Close 关闭底层watcher
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
