package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"hrdoc-go/internal/config"
)

// 配置校验在任何broker交互之前完成，这些用例不需要真实连接。

func TestDeclareTopologyIncompleteConfig(t *testing.T) {
	mq := &RabbitMQ{cfg: &config.RabbitMQConfig{}}

	err := mq.EnsureUploadTopology()
	assert.Error(t, err, "exchange与队列未配置时应当报错")
	assert.Contains(t, err.Error(), "消息拓扑配置不完整")

	err = mq.EnsureScoringTopology()
	assert.Error(t, err)
}

func TestPublishDocumentUploadedValidation(t *testing.T) {
	mq := &RabbitMQ{cfg: &config.RabbitMQConfig{
		DocumentEventsExchange: "document.events.exchange",
		UploadedRoutingKey:     "document.uploaded",
	}}

	err := mq.PublishDocumentUploaded(context.Background(), DocumentUploadMessage{})
	assert.Error(t, err, "缺少submission_uuid的消息不应发布")
	assert.Contains(t, err.Error(), "submission_uuid")

	noExchange := &RabbitMQ{cfg: &config.RabbitMQConfig{}}
	err = noExchange.PublishDocumentUploaded(context.Background(), DocumentUploadMessage{SubmissionUUID: "u-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exchange未配置")
}

func TestEnsureExchangeRejectsInvalidNames(t *testing.T) {
	mq := &RabbitMQ{cfg: &config.RabbitMQConfig{}}

	assert.Error(t, mq.EnsureExchange("", "direct", true))
	assert.Error(t, mq.EnsureExchange("amq.default", "direct", true))
	assert.Error(t, mq.EnsureExchange("default", "direct", true))
}
