package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/team-rocos/rclbridge/rcl"
)

type takeFunc func(p rcl.Pointer, header *rcl.RequestID, buf rcl.Buffer) error

type sendFunc func(p rcl.Pointer, header *rcl.RequestID, buf rcl.Buffer) error

// takeWithHeader runs one non-blocking take. It returns (nil, nil) when the
// native call reports takeFailed, i.e. nothing was pending.
func (b *Bridge) takeWithHeader(what string, h Handle, kind Kind, takeFailed rcl.RetCode,
	conv Converter, msg Message, take takeFunc) (*RMWRequestID, error) {

	p, err := b.handles.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	if err := checkConverter(conv, msg); err != nil {
		return nil, err
	}

	var scope bufferScope
	defer scope.close()

	buf, err := scope.fromManaged(conv, msg)
	if err != nil {
		return nil, err
	}
	var header rcl.RequestID
	if err := take(p, &header, buf); err != nil {
		if rcl.CodeOf(err) == takeFailed {
			return nil, nil
		}
		return nil, b.fail(err, "Failed to take "+what)
	}
	if err := toManaged(conv, buf, msg); err != nil {
		return nil, err
	}
	logger := *b.logger
	logger.WithFields(logrus.Fields{
		"handle":          h.String(),
		"sequence_number": header.SequenceNumber,
	}).Debugf("took %s", what)
	return EncodeRequestID(&header), nil
}

// sendWithHeader delivers one response addressed by id.
func (b *Bridge) sendWithHeader(what string, h Handle, kind Kind, id *RMWRequestID,
	conv Converter, msg Message, send sendFunc) error {

	p, err := b.handles.lookup(h, kind)
	if err != nil {
		return err
	}
	if err := checkConverter(conv, msg); err != nil {
		return err
	}

	var scope bufferScope
	defer scope.close()

	buf, err := scope.fromManaged(conv, msg)
	if err != nil {
		return err
	}
	header, err := DecodeRequestID(id)
	if err != nil {
		return err
	}
	err = send(p, header, buf)
	scope.destroy(buf)
	if err != nil {
		return b.fail(err, "Failed to send "+what)
	}
	logger := *b.logger
	logger.WithFields(logrus.Fields{
		"handle":          h.String(),
		"sequence_number": header.SequenceNumber,
	}).Debugf("sent %s", what)
	return nil
}

// TakeRequest takes one pending request from a service into msg. It returns
// nil and no error when no request is pending.
func (b *Bridge) TakeRequest(service Handle, conv Converter, msg Message) (*RMWRequestID, error) {
	return b.takeWithHeader("request from a service", service, KindService, rcl.RetServiceTakeFailed,
		conv, msg, b.lib.TakeRequest)
}

// SendResponse sends msg as the response to the request identified by id.
func (b *Bridge) SendResponse(service Handle, id *RMWRequestID, conv Converter, msg Message) error {
	return b.sendWithHeader("response from a service", service, KindService, id, conv, msg, b.lib.SendResponse)
}

// TakeResponse takes one pending response from a client into msg. It returns
// nil and no error when no response is pending.
func (b *Bridge) TakeResponse(client Handle, conv Converter, msg Message) (*RMWRequestID, error) {
	return b.takeWithHeader("response from a client", client, KindClient, rcl.RetClientTakeFailed,
		conv, msg, b.lib.TakeResponse)
}

// SendRequest sends msg from a client and returns its sequence number.
func (b *Bridge) SendRequest(client Handle, conv Converter, msg Message) (int64, error) {
	p, err := b.handles.lookup(client, KindClient)
	if err != nil {
		return 0, err
	}
	if err := checkConverter(conv, msg); err != nil {
		return 0, err
	}

	var scope bufferScope
	defer scope.close()

	buf, err := scope.fromManaged(conv, msg)
	if err != nil {
		return 0, err
	}
	seq, err := b.lib.SendRequest(p, buf)
	if err != nil {
		return 0, b.fail(err, "Failed to send request from a client")
	}
	return seq, nil
}

// Take takes one message from a subscription into msg. It reports false
// and no error when nothing was pending.
func (b *Bridge) Take(subscription Handle, conv Converter, msg Message) (bool, error) {
	p, err := b.handles.lookup(subscription, KindSubscription)
	if err != nil {
		return false, err
	}
	if err := checkConverter(conv, msg); err != nil {
		return false, err
	}

	var scope bufferScope
	defer scope.close()

	buf, err := scope.fromManaged(conv, msg)
	if err != nil {
		return false, err
	}
	if err := b.lib.Take(p, buf); err != nil {
		if rcl.CodeOf(err) == rcl.RetSubscriptionTakeFailed {
			return false, nil
		}
		return false, b.fail(err, "Failed to take from a subscription")
	}
	if err := toManaged(conv, buf, msg); err != nil {
		return false, err
	}
	return true, nil
}
