// Package history 提供歷史存放區的持久化。
//
// 歷史是單一UTF-8 JSON陣列檔。寫入採tmp檔+驗證+原子替換，
// 任何時點都不會留下寫到一半的狀態；讀取時遇到損壞檔則
// 備份後視為空歷史，不中斷執行。
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yuchieh/lawwatch/internal/model"
)

// fileName 是資料目錄下的歷史檔名稱。
const fileName = "history.json"

// Store 是以JSON檔為後端的歷史存放區。
// 假設執行期間獨佔歷史檔，不做行程內鎖定。
type Store struct {
	path       string
	maxEntries int // 0表示不裁剪
	logger     *slog.Logger
}

// NewStore 建立Store的新實例。
// maxEntries大於0時啟用容量上限裁剪。
func NewStore(dataDir string, maxEntries int, logger *slog.Logger) *Store {
	return &Store{
		path:       filepath.Join(dataDir, fileName),
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Path 回傳歷史檔的路徑。
func (s *Store) Path() string {
	return s.path
}

// Load 讀取持久化的歷史。
// 檔案不存在時視為首次執行、回傳空歷史。
// 結構損壞的檔案會改名備份（供事後檢查）後回傳空歷史，永不中斷執行。
func (s *Store) Load() ([]model.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("歷史檔不存在，視為首次執行",
				slog.String("path", s.path),
			)
			return []model.Entry{}, nil
		}
		return nil, fmt.Errorf("讀取歷史檔失敗: %w", err)
	}

	var entries []model.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		backup := fmt.Sprintf("%s.corrupt.%s", s.path, time.Now().Format("20060102_150405"))
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			return nil, fmt.Errorf("損壞歷史檔的備份失敗: %w", renameErr)
		}
		appErr := model.NewStoreCorruptError(s.path, backup)
		s.logger.Warn("歷史檔損壞，已備份後以空歷史繼續",
			slog.String("code", appErr.Code),
			slog.String("path", s.path),
			slog.String("backup", backup),
			slog.String("error", err.Error()),
		)
		return []model.Entry{}, nil
	}

	s.logger.Info("歷史檔讀取完成",
		slog.String("path", s.path),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}

// Save 以原子替換方式持久化歷史。
// 先寫入同目錄的tmp檔，確認能重新反序列化後再rename蓋過舊檔。
// 任一步失敗時舊檔維持原狀，回傳WRITE_FAILED包裝的錯誤。
func (s *Store) Save(entries []model.Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return model.NewWriteFailedError(s.path, err.Error())
	}

	data, err := marshalEntries(entries)
	if err != nil {
		return fmt.Errorf("歷史序列化失敗: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp-*")
	if err != nil {
		return model.NewWriteFailedError(s.path, err.Error())
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return model.NewWriteFailedError(s.path, err.Error())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return model.NewWriteFailedError(s.path, err.Error())
	}
	if err := tmp.Close(); err != nil {
		return model.NewWriteFailedError(s.path, err.Error())
	}

	// 替換前驗證tmp檔可反序列化
	written, err := os.ReadFile(tmpPath)
	if err != nil {
		return model.NewWriteFailedError(s.path, err.Error())
	}
	var verify []model.Entry
	if err := json.Unmarshal(written, &verify); err != nil {
		return model.NewWriteFailedError(s.path, fmt.Sprintf("寫入內容無法反序列化: %s", err))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return model.NewWriteFailedError(s.path, err.Error())
	}

	s.logger.Info("歷史檔寫入完成",
		slog.String("path", s.path),
		slog.Int("entries", len(entries)),
	)
	return nil
}

// SaveWithRetention 持久化歷史後套用容量上限裁剪。
// 裁剪只在完整歷史成功寫入後進行；裁剪後的集合再做一次原子寫入。
// 回傳實際落地的集合。
func (s *Store) SaveWithRetention(entries []model.Entry) ([]model.Entry, error) {
	if err := s.Save(entries); err != nil {
		return nil, err
	}

	if s.maxEntries <= 0 || len(entries) <= s.maxEntries {
		return entries, nil
	}

	trimmed := Trim(entries, s.maxEntries)
	if err := s.Save(trimmed); err != nil {
		// 裁剪寫入失敗時，已成功落地的完整歷史仍然有效
		s.logger.Warn("容量裁剪的寫入失敗，保留完整歷史",
			slog.Int("entries", len(entries)),
			slog.Int("ceiling", s.maxEntries),
			slog.String("error", err.Error()),
		)
		return entries, nil
	}

	s.logger.Info("歷史已依容量上限裁剪",
		slog.Int("before", len(entries)),
		slog.Int("after", len(trimmed)),
	)
	return trimmed, nil
}

// Trim 保留最近被觸碰的max筆條目，其餘（較舊者優先）捨棄。
// 輸出維持輸入的相對順序。
func Trim(entries []model.Entry, max int) []model.Entry {
	if max <= 0 || len(entries) <= max {
		return entries
	}

	byTouch := make([]model.Entry, len(entries))
	copy(byTouch, entries)
	sort.SliceStable(byTouch, func(i, j int) bool {
		return byTouch[i].Touched().After(byTouch[j].Touched())
	})

	keep := make(map[string]struct{}, max)
	for _, e := range byTouch[:max] {
		keep[e.ID] = struct{}{}
	}

	out := make([]model.Entry, 0, max)
	for _, e := range entries {
		if _, ok := keep[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// marshalEntries 將條目序列化為縮排JSON。
// 不跳脫HTML字元，維持中文標題的可讀性。
func marshalEntries(entries []model.Entry) ([]byte, error) {
	if entries == nil {
		entries = []model.Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
