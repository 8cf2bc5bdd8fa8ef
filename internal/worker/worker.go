package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ReminderQueueName is the redis list reminders are pushed to.
	ReminderQueueName = "deadline_reminders"
	deadQueueName     = "deadline_reminders_dead"

	maxAttempts = 3
)

// ReminderJob is a queued deadline reminder for a single task.
type ReminderJob struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	TaskID    uuid.UUID `json:"task_id"`
	Deadline  string    `json:"deadline"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// ReminderHandler delivers one reminder. Returning an error requeues the
// job until maxAttempts is reached.
type ReminderHandler func(ctx context.Context, job *ReminderJob) error

// Queue enqueues reminder jobs onto redis. It satisfies the task
// service's ReminderQueue dependency.
type Queue struct {
	client *redis.Client
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) EnqueueDeadlineReminder(username string, taskID uuid.UUID, deadline models.Date) error {
	job := &ReminderJob{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Username:  username,
		TaskID:    taskID,
		Deadline:  deadline.String(),
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, ReminderQueueName, data).Err()
}

func (q *Queue) Size() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, ReminderQueueName).Result()
}

// Worker drains the reminder queue on a pool of goroutines. It runs
// entirely outside the request path; a stopped worker only delays
// reminders, it never affects API behavior.
type Worker struct {
	client  *redis.Client
	handler ReminderHandler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(client *redis.Client, handler ReminderHandler) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		client:  client,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start(concurrency int) {
	log.Printf("Starting reminder worker with %d goroutines", concurrency)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.loop()
	}
}

func (w *Worker) Stop() {
	log.Println("Stopping reminder worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Reminder worker stopped")
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNext(); err != nil {
				log.Printf("Error processing reminder: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) processNext() error {
	result, err := w.client.BLPop(w.ctx, 5*time.Second, ReminderQueueName).Result()
	if err != nil {
		if err == redis.Nil || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop reminder: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid pop result")
	}

	var job ReminderJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal reminder job: %w", err)
	}

	return w.deliver(&job)
}

func (w *Worker) deliver(job *ReminderJob) error {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if err := w.handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < maxAttempts {
			log.Printf("Reminder %s failed (attempt %d/%d), requeueing: %v",
				job.ID, job.Attempts, maxAttempts, err)
			return w.push(ReminderQueueName, job)
		}

		log.Printf("Reminder %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, err)
		return w.push(deadQueueName, job)
	}

	return nil
}

func (w *Worker) push(queue string, job *ReminderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder job: %w", err)
	}
	return w.client.RPush(w.ctx, queue, data).Err()
}
