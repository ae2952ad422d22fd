// Package model はドメインモデルを定義する。
package model

import "time"

// FollowEdge はフォロワーからフォロイーへの有向エッジを表す。
// (FollowerID, FolloweeID)の組はDBのUNIQUE制約で一意。
// エッジの作成・削除はフォロワー本人のみが行える。
type FollowEdge struct {
	ID         string
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}
