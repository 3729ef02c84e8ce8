package scope

import (
	"sync"
)

// SharedSession 供多个网络连接共享的会话句柄:一把互斥锁 + 首次使用时
// 打开的工厂。锁的约定是覆盖一次完整请求 (含全部串口往返),防止多个
// 连接的字节在同一条物理链路上交错。
type SharedSession struct {
	factory func() (*Session, error)

	mu   sync.Mutex
	sess *Session
}

// NewSharedSession 用会话工厂构造共享句柄;工厂至多被调用一次
func NewSharedSession(factory func() (*Session, error)) *SharedSession {
	return &SharedSession{factory: factory}
}

// Open 立即打开底层会话;已打开时为空操作
func (h *SharedSession) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openLocked()
}

func (h *SharedSession) openLocked() error {
	if h.sess != nil {
		return nil
	}
	sess, err := h.factory()
	if err != nil {
		return err
	}
	h.sess = sess
	return nil
}

// With 在锁内执行一次完整请求;必要时先惰性打开串口。
// 请求返回错误不影响句柄状态,下一条命令继续复用同一会话。
func (h *SharedSession) With(fn func(*Session) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.openLocked(); err != nil {
		return err
	}
	return fn(h.sess)
}

// Close 关闭底层会话;未打开时为空操作
func (h *SharedSession) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess == nil {
		return nil
	}
	err := h.sess.Close()
	h.sess = nil
	return err
}
