//go:build rcl

package native

/*
#include <rcl/rcl.h>
*/
import "C"

import "github.com/team-rocos/rclbridge/rcl"

func (Library) Take(p rcl.Pointer, buf rcl.Buffer) error {
	sub, err := cast[C.rcl_subscription_t](p, "subscription")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	return errorsCast(C.rcl_take(sub, msg, nil, nil))
}

func (Library) TakeRequest(p rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	service, err := cast[C.rcl_service_t](p, "service")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	var header C.rmw_request_id_t
	if err := errorsCast(C.rcl_take_request(service, &header, msg)); err != nil {
		return err
	}
	toRequestID(&header, id)
	return nil
}

func (Library) SendResponse(p rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	service, err := cast[C.rcl_service_t](p, "service")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	header := fromRequestID(id)
	return errorsCast(C.rcl_send_response(service, &header, msg))
}

func (Library) SendRequest(p rcl.Pointer, buf rcl.Buffer) (int64, error) {
	client, err := cast[C.rcl_client_t](p, "client")
	if err != nil {
		return 0, err
	}
	msg, err := message(buf)
	if err != nil {
		return 0, err
	}
	var seq C.int64_t
	if err := errorsCast(C.rcl_send_request(client, msg, &seq)); err != nil {
		return 0, err
	}
	return int64(seq), nil
}

func (Library) TakeResponse(p rcl.Pointer, id *rcl.RequestID, buf rcl.Buffer) error {
	client, err := cast[C.rcl_client_t](p, "client")
	if err != nil {
		return err
	}
	msg, err := message(buf)
	if err != nil {
		return err
	}
	var header C.rmw_request_id_t
	if err := errorsCast(C.rcl_take_response(client, &header, msg)); err != nil {
		return err
	}
	toRequestID(&header, id)
	return nil
}
