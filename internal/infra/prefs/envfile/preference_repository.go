package envfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"geek-ludo/internal/repository"
)

// PreferenceRepository 把偏好保存在一个 .env 格式的文件中，
// 相当于浏览器的 localStorage。
type PreferenceRepository struct {
	path string
	mu   sync.Mutex
}

// NewPreferenceRepository 创建 PreferenceRepository 实例，文件不存在时在首次写入时创建。
func NewPreferenceRepository(path string) *PreferenceRepository {
	if path == "" {
		panic("preference file path cannot be empty")
	}
	return &PreferenceRepository{path: path}
}

// Get 实现 repository.PreferenceRepository
func (r *PreferenceRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", repository.ErrPreferenceNotFound
	}
	return v, nil
}

// Set 实现 repository.PreferenceRepository
func (r *PreferenceRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return err
	}
	values[key] = value
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("envfile: create directory for %s: %w", r.path, err)
	}
	if err := godotenv.Write(values, r.path); err != nil {
		return fmt.Errorf("envfile: write %s: %w", r.path, err)
	}
	return nil
}

func (r *PreferenceRepository) read() (map[string]string, error) {
	values, err := godotenv.Read(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("envfile: read %s: %w", r.path, err)
	}
	return values, nil
}
