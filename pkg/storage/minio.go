// Package storage 提供了与对象存储服务（S3/MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mentor-go/internal/config"
	"mentor-go/pkg/log"
)

// Client 封装了按 bucket+prefix 访问对象存储的最小能力。
type Client struct {
	mc     *minio.Client
	bucket string
}

// New 初始化对象存储客户端并检查存储桶是否可达。
// 存储桶不存在时只记录警告，后续 ListKeys 会得到空结果。
func New(cfg config.S3Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化对象存储客户端失败: %w", err)
	}

	exists, err := mc.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		log.Warnf("检查存储桶 '%s' 失败: %v", cfg.Bucket, err)
	} else if !exists {
		log.Warnf("存储桶 '%s' 不存在", cfg.Bucket)
	} else {
		log.Infof("对象存储客户端初始化成功, bucket: %s", cfg.Bucket)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// ListKeys 列出指定前缀下的所有对象 key。
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("列出对象失败: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Fetch 读取指定 key 的对象全文。
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	object, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("下载对象 '%s' 失败: %w", key, err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, object); err != nil {
		return nil, fmt.Errorf("读取对象 '%s' 内容失败: %w", key, err)
	}
	return buf.Bytes(), nil
}
