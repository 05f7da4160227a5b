package enum

type EmailDirection string

const (
	EmailDirectionInbound  EmailDirection = "inbound"
	EmailDirectionOutbound EmailDirection = "outbound"
)

func (e EmailDirection) String() string {
	return string(e)
}

type EmailStatus string

const (
	EmailStatusSent     EmailStatus = "sent"
	EmailStatusFailed   EmailStatus = "failed"
	EmailStatusReceived EmailStatus = "received"
)

func (e EmailStatus) String() string {
	return string(e)
}
