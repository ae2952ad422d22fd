// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー入力テキスト（投稿本文、コメント、自己紹介）を
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの許可リストベースのポリシーで、HTMLタグを一切通過させない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストのサニタイズ機能のインターフェースを定義する。
// ユーザー入力の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグをすべて除去したプレーンテキストを返す。
	// script/iframe等のタグおよびon*イベント属性は本文ごと除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// マイクロブログの本文はプレーンテキストとして扱うため、
// タグを一切許可しないStrictPolicyを使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグをすべて除去したプレーンテキストを返す。
// StrictPolicyは出力をHTMLエンティティとしてエスケープするため、
// プレーンテキストに戻してから返す（"a & b"のような本文を壊さない）。
func (s *contentSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
