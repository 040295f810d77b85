// Package ownerlock 提供按key互斥的锁，用于串行化同一用户的上传与保留清理
package ownerlock

import (
	"context"
	"errors"
)

// ErrLockTimeout 在ctx结束前没有拿到锁
var ErrLockTimeout = errors.New("ownerlock: timed out waiting for lock")

// Unlock 释放锁，重复调用无副作用
type Unlock func()

// Locker 按key加锁
type Locker interface {
	// Lock 阻塞直到拿到key对应的锁或ctx结束
	Lock(ctx context.Context, key string) (Unlock, error)
}
