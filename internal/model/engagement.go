// Package model はドメインモデルを定義する。
package model

import "time"

// LikeTargetType はいいね対象の種別を表す。
// (種別, ID)の組でいいね対象を識別するため、専用の結合テーブルを
// 追加せずに任意のエンティティへいいねを付けられる。
type LikeTargetType string

const (
	// LikeTargetPost は投稿へのいいねを示す。
	LikeTargetPost LikeTargetType = "post"
)

// LikeTarget はいいね対象への参照を表す。
type LikeTarget struct {
	Type LikeTargetType
	ID   string
}

// LikeRecord はユーザーから対象への冪等ないいねを表す。
// (UserID, TargetType, TargetID)の組はDBのUNIQUE制約で一意であり、
// 同一ユーザーが同一対象に付けられるいいねは最大1件。
type LikeRecord struct {
	ID         string
	UserID     string
	TargetType LikeTargetType
	TargetID   string
	CreatedAt  time.Time
}

// MaxCommentLength はコメント本文の最大文字数。
const MaxCommentLength = 350

// Comment は投稿へのコメントを表す。
type Comment struct {
	ID        string
	UserID    string
	PostID    string
	Body      string
	CreatedAt time.Time
}

// CommentWithAuthor はコメントに投稿者情報を付加したモデル。
// usersテーブルとJOINして取得される。
type CommentWithAuthor struct {
	Comment
	AuthorNickname string
	AuthorEmail    string
}
