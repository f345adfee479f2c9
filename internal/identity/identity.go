// Package identity 提供紀錄的穩定識別碼派生。
//
// 識別碼是內容雜湊的前12個十六進位字元，對同一鍵值在任何執行
// 環境下都得到相同結果。優先以canonical URL為鍵，缺少URL時
// 退而使用標題+公告日期的串接。
package identity

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/yuchieh/lawwatch/internal/model"
)

// idLength 是識別碼的十六進位字元數。
const idLength = 12

// AssignID 為正規化紀錄派生穩定識別碼。
// 純函式: 鍵值相同的紀錄永遠得到相同識別碼。
func AssignID(rec model.Record) string {
	key := rec.CanonicalURL
	if key == "" {
		key = rec.Title + rec.AnnouncementDate
	}
	return hashKey(key)
}

// hashKey 計算鍵值的12位十六進位指紋。
func hashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:idLength]
}
