package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	QueueKey           = "mail_queue"
	DefaultMaxAttempts = 3
	sendTimeout        = 30 * time.Second
)

// Queue accepts messages for asynchronous delivery. Enqueue must not block
// on the actual send.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

type Job struct {
	ID        string    `json:"id"`
	Message   Message   `json:"message"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisQueue stores jobs in a Redis list and drains them with a fixed
// number of workers.
type RedisQueue struct {
	client      *redis.Client
	mailer      Mailer
	workers     int
	maxAttempts int
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

func NewRedisQueue(client *redis.Client, mailer Mailer, workers int) *RedisQueue {
	if workers <= 0 {
		workers = 1
	}
	return &RedisQueue{
		client:      client,
		mailer:      mailer,
		workers:     workers,
		maxAttempts: DefaultMaxAttempts,
		stopCh:      make(chan struct{}),
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	job := Job{
		ID:        uuid.NewString(),
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	return q.push(ctx, job)
}

func (q *RedisQueue) push(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}
	if err := q.client.LPush(ctx, QueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue mail job: %w", err)
	}
	log.Infof("[MailQueue] Enqueued job %s to %s", job.ID, job.Message.To)
	return nil
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *RedisQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[MailQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop signals the workers and waits for in-flight sends.
func (q *RedisQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[MailQueue] All workers stopped")
}

func (q *RedisQueue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		job, err := q.dequeue(ctx)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[MailQueue] Worker %d: dequeue failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		q.process(ctx, job)
	}
}

func (q *RedisQueue) dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BRPop(ctx, time.Second, QueueKey).Result()
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mail job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) process(ctx context.Context, job *Job) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	job.Attempts++
	err := q.mailer.Send(sendCtx, job.Message)
	if err == nil {
		return
	}
	if job.Attempts >= q.maxAttempts {
		log.Errorf("[MailQueue] Giving up on job %s after %d attempts: %v", job.ID, job.Attempts, err)
		return
	}
	log.Warnf("[MailQueue] Job %s failed (attempt %d/%d): %v", job.ID, job.Attempts, q.maxAttempts, err)
	if perr := q.push(ctx, *job); perr != nil {
		log.Errorf("[MailQueue] Requeue of job %s failed: %v", job.ID, perr)
	}
}

// DirectQueue sends each message in its own goroutine. Used when no Redis
// is available.
type DirectQueue struct {
	mailer Mailer
	wg     sync.WaitGroup
}

func NewDirectQueue(mailer Mailer) *DirectQueue {
	return &DirectQueue{mailer: mailer}
}

func (q *DirectQueue) Enqueue(_ context.Context, msg Message) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := q.mailer.Send(ctx, msg); err != nil {
			log.Errorf("[Mail] Direct send to %s failed: %v", msg.To, err)
		}
	}()
	return nil
}

// Wait blocks until every started send has returned.
func (q *DirectQueue) Wait() {
	q.wg.Wait()
}
