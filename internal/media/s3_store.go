// Package media は投稿・プロフィール画像の参照管理を提供する。
//
// 画像本体はS3互換のオブジェクトストレージが保持し、コアは
// オブジェクトキーのみを永続化する。アップロードはクライアントが
// 署名付きURLに対して直接行うため、サーバーは画像バイト列を扱わない。
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// uploadURLExpiry は署名付きアップロードURLの有効期間。
const uploadURLExpiry = 5 * time.Minute

// Upload は署名付きアップロードURLの発行結果。
type Upload struct {
	// UploadURL はクライアントがPUTする署名付きURL。
	UploadURL string
	// Key は永続化するオブジェクトキー。
	Key string
	// ExpiresIn はURLの有効期間（秒）。
	ExpiresIn int
}

// Store は画像アップロードURL発行のインターフェース。
type Store interface {
	// PresignUpload はprefix配下の新規キーへの署名付きPUT URLを発行する。
	PresignUpload(ctx context.Context, prefix, contentType string) (*Upload, error)
}

// S3Store はAWS S3を使用したStoreの実装。
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store はS3Storeを生成する。
// 認証情報はAWS SDKのデフォルトチェーン（環境変数、IAMロール等）から解決する。
func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// PresignUpload はprefix配下の新規キーへの署名付きPUT URLを発行する。
// キーは "{prefix}/{uuid}" の形式で生成する。
func (s *S3Store) PresignUpload(ctx context.Context, prefix, contentType string) (*Upload, error) {
	key := fmt.Sprintf("%s/%s", prefix, uuid.New().String())

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &Upload{
		UploadURL: request.URL,
		Key:       key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

var _ Store = (*S3Store)(nil)
