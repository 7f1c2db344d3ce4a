package spotlight

import "testing"

// TestObservableGetSet 轮询路径读到最新值
func TestObservableGetSet(t *testing.T) {
	o := NewObservable(DimStopped)
	if got := o.Get(); got != DimStopped {
		t.Errorf("Get() = %v, want STOPPED", got)
	}
	o.Set(DimRunning)
	if got := o.Get(); got != DimRunning {
		t.Errorf("Get() = %v, want RUNNING", got)
	}
}

// TestObservableSubscribeLatestWins 慢消费者只收到最新值，Set 永不阻塞
func TestObservableSubscribeLatestWins(t *testing.T) {
	o := NewObservable(0)
	ch, cancel := o.Subscribe()
	defer cancel()

	// 连续推送，消费者不取走
	o.Set(1)
	o.Set(2)
	o.Set(3)

	select {
	case v := <-ch:
		if v != 3 {
			t.Errorf("received %d, want 3 (latest wins)", v)
		}
	default:
		t.Fatal("no value buffered in subscription channel")
	}

	// 通道已腾空
	select {
	case v := <-ch:
		t.Errorf("unexpected second value %d", v)
	default:
	}
}

// TestObservableUnsubscribe 退订后通道关闭且不再收到推送
func TestObservableUnsubscribe(t *testing.T) {
	o := NewObservable("init")
	ch, cancel := o.Subscribe()

	cancel()
	// 退订幂等
	cancel()

	o.Set("after")
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}

// TestObservableMultipleSubscribers 多订阅者各自独立收到推送
func TestObservableMultipleSubscribers(t *testing.T) {
	o := NewObservable(Snapshot{})
	ch1, cancel1 := o.Subscribe()
	ch2, cancel2 := o.Subscribe()
	defer cancel1()
	defer cancel2()

	o.Set(Snapshot{Key: "a"})

	for i, ch := range []<-chan Snapshot{ch1, ch2} {
		select {
		case snap := <-ch:
			if snap.Key != "a" {
				t.Errorf("subscriber %d received key %q, want a", i, snap.Key)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}
