// Package model はドメインモデルを定義する。
package model

import "time"

// MaxPostContentLength は投稿本文の最大文字数。
const MaxPostContentLength = 280

// Post はユーザーの投稿を表す。
// ImageKeyはオブジェクトストレージ上のキーであり、画像本体は保持しない。
type Post struct {
	ID        string
	UserID    string
	Content   string
	ImageKey  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostWithMeta は投稿にフィード表示用の集計値を付加したモデル。
// likesテーブルとJOINして取得される。
type PostWithMeta struct {
	Post
	AuthorNickname string
	AuthorEmail    string
	LikeCount      int
	LikedByViewer  bool
}
