package callsession

import (
	"sync"
	"time"
)

// Quality, gelen video kalitesinin üç bantlı sınıflandırması.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityPoor      Quality = "poor"
)

// ClassifyLoss, paket kayıp oranını kalite bandına çevirir.
// Bantlar: <%1 excellent, <%5 good, gerisi poor. Sınır değerler bir üst
// (kötü) banda düşer: 0.01 → good, 0.05 → poor.
func ClassifyLoss(ratio float64) Quality {
	switch {
	case ratio < 0.01:
		return QualityExcellent
	case ratio < 0.05:
		return QualityGood
	default:
		return QualityPoor
	}
}

// StatsSource, kalite örnekleyicisinin ihtiyaç duyduğu tek yüzey.
// Peer bunu implement eder; testler sabit sayaçlar döner.
type StatsSource interface {
	InboundVideoStats() (lost, received uint32, ok bool)
}

// qualitySampler, belirli aralıklarla gelen video istatistiklerini okuyup
// kayıp oranını sınıflandırır. Anlık örnektir, pencereli ortalama değil —
// patlamalı kayıpta bantlar arası hızlı salınım beklenen davranıştır.
type qualitySampler struct {
	source   StatsSource
	interval time.Duration
	onSample func(Quality)

	mu      sync.Mutex
	current Quality
	stop    chan struct{}
	stopped bool
}

func newQualitySampler(source StatsSource, interval time.Duration, onSample func(Quality)) *qualitySampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &qualitySampler{
		source:   source,
		interval: interval,
		onSample: onSample,
		current:  QualityExcellent,
		stop:     make(chan struct{}),
	}
}

// Start, örnekleme goroutine'ini başlatır.
func (q *qualitySampler) Start() {
	go func() {
		ticker := time.NewTicker(q.interval)
		defer ticker.Stop()
		for {
			select {
			case <-q.stop:
				return
			case <-ticker.C:
				q.sample()
			}
		}
	}()
}

// sample tek bir ölçüm yapar. Bant değiştiğinde onSample tetiklenir.
func (q *qualitySampler) sample() {
	lost, received, ok := q.source.InboundVideoStats()
	if !ok || lost+received == 0 {
		return
	}
	next := ClassifyLoss(float64(lost) / float64(lost+received))

	q.mu.Lock()
	changed := next != q.current
	q.current = next
	q.mu.Unlock()

	if changed && q.onSample != nil {
		q.onSample(next)
	}
}

// Current, son ölçülen bandı döner.
func (q *qualitySampler) Current() Quality {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Stop, örneklemeyi durdurur. Idempotent.
func (q *qualitySampler) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	close(q.stop)
}
