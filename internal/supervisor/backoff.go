package supervisor

import "time"

const (
	// DefaultBackoffFloor는 첫 재연결 대기 시간이자 증가 폭입니다.
	DefaultBackoffFloor = 5 * time.Second
	// DefaultBackoffCeiling은 재연결 대기 시간의 상한입니다.
	DefaultBackoffCeiling = 5 * time.Minute
)

// Backoff는 재연결 대기 시간을 계산합니다.
// 연속 실패마다 floor만큼 늘어나고 ceiling에서 멈추며, 연결 성공 시 floor로 돌아갑니다.
type Backoff struct {
	floor   time.Duration
	ceiling time.Duration
	next    time.Duration
}

// NewBackoff는 새 Backoff를 생성합니다.
func NewBackoff(floor, ceiling time.Duration) *Backoff {
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &Backoff{floor: floor, ceiling: ceiling, next: floor}
}

// Next는 이번 대기 시간을 반환하고 다음 값을 늘립니다.
func (b *Backoff) Next() time.Duration {
	d := b.next
	b.next += b.floor
	if b.next > b.ceiling {
		b.next = b.ceiling
	}
	return d
}

// Peek은 다음 대기 시간을 변경 없이 반환합니다.
func (b *Backoff) Peek() time.Duration {
	return b.next
}

// Reset은 대기 시간을 floor로 되돌립니다.
func (b *Backoff) Reset() {
	b.next = b.floor
}
