// Package keylock 提供按 key 粒度的进程内互斥锁。
//
// 同一员工的打卡请求在进入数据库事务前先在本进程内串行化，
// 不同员工之间互不阻塞。跨实例的互斥仍由数据库行锁与部分唯一索引保证。
package keylock

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

type entry struct {
	mu   sync.Mutex
	refs int // 持有或等待该锁的调用方数量，归零时回收
}

// Locker 按 key 加锁
type Locker struct {
	entries *xsync.Map[string, *entry]
}

// New 创建 Locker
func New() *Locker {
	return &Locker{entries: xsync.NewMap[string, *entry]()}
}

// Lock 获取 key 对应的锁，返回解锁函数
func (l *Locker) Lock(key string) (unlock func()) {
	e, _ := l.entries.Compute(key, func(old *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded {
			old = &entry{}
		}
		old.refs++
		return old, xsync.UpdateOp
	})

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.release(key)
		})
	}
}

func (l *Locker) release(key string) {
	l.entries.Compute(key, func(old *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		old.refs--
		if old.refs <= 0 {
			return old, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}

// Len 当前被持有或等待中的 key 数量
func (l *Locker) Len() int {
	return l.entries.Size()
}
