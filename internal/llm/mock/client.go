package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/llm"
)

const defaultReply = "Проверьте подключение кассы и перезапустите драйвер ККТ."

// Client - офлайн-модель: дописывает ответ к промпту, как генеративная модель.
// Используется провайдером LLM_PROVIDER=mock и в тестах.
type Client struct {
	Response string
	Error    error
	Delay    time.Duration

	mu          sync.Mutex
	replies     []string
	CallCount   int
	LastRequest llm.GenerateRequest
}

func New() *Client {
	return &Client{Response: defaultReply}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

// WithReplies задает ответы по очереди; после последнего повторяется Response
func (c *Client) WithReplies(replies ...string) *Client {
	c.replies = append(c.replies, replies...)
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	reply := c.Response
	if len(c.replies) > 0 {
		reply, c.replies = c.replies[0], c.replies[1:]
	}
	c.mu.Unlock()

	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if c.Error != nil {
		return "", c.Error
	}

	return req.Prompt + " " + reply, nil
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

func (c *Client) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LastRequest.Prompt
}

var _ llm.Client = (*Client)(nil)
