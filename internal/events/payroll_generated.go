package events

import (
	"context"
	"encoding/json"
)

const (
	PayrollChannel        = "payroll:channel"
	PayrollGeneratedTopic = "hr.payroll.generated.v1"
)

type PayrollGeneratedEvent struct {
	ID       string  `json:"id"`
	Employee string  `json:"employee"`
	Period   string  `json:"period"`
	NetPay   float64 `json:"netPay"`
}

// PayrollPublisher announces generated payrolls.
type PayrollPublisher struct {
	pub     Publisher
	channel string
}

func NewPayrollPublisher(pub Publisher) *PayrollPublisher {
	return &PayrollPublisher{pub: pub, channel: PayrollChannel}
}

func (p *PayrollPublisher) PublishGenerated(ctx context.Context, event PayrollGeneratedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, p.channel, payload)
}
