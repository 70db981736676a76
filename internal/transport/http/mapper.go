package http

import (
	"encoding/json"

	"github.com/chatweb/chatweb-server/internal/core"
	"github.com/chatweb/chatweb-server/internal/proto"
	"github.com/chatweb/chatweb-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		// Field presence is validated by the relay so the sender gets a
		// proper error event, not a protocol error.
		return &core.Command{
			Kind:        core.CommandSendMessage,
			ReceiverID:  data.ReceiverID,
			Content:     data.Content,
			MessageType: store.MessageType(data.MessageType),
		}, nil, nil
	case proto.InboundTypeTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ReceiverID == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "receiverId is required"}, nil
		}
		return &core.Command{
			Kind:       core.CommandTyping,
			ReceiverID: data.ReceiverID,
			IsTyping:   data.IsTyping,
		}, nil, nil
	case proto.InboundTypeMarkRead:
		var data proto.MarkReadData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.SenderID == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "senderId is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandMarkRead,
			SenderID: data.SenderID,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUsersOnline:
		users := make([]proto.PresenceUser, 0, len(event.Users))
		for _, identity := range event.Users {
			users = append(users, proto.PresenceUser{
				ID:       identity.ID,
				Name:     identity.Name,
				Avatar:   identity.Avatar,
				IsOnline: true,
			})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUsersOnline,
			Data:  users,
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data:  eventMessage(event),
		}
	case core.EventMessageSent:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageSent,
			Data:  eventMessage(event),
		}
	case core.EventUserTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserTyping,
			Data: proto.EventTyping{
				UserID:   event.From.ID,
				UserName: event.From.Name,
				IsTyping: event.IsTyping,
			},
		}
	case core.EventMessagesRead:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessagesRead,
			Data: proto.EventRead{
				ReadBy: event.ReadBy,
				ReadAt: event.ReadAt,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessage(event *core.Event) proto.EventMessage {
	msg := event.Message
	return proto.EventMessage{
		ID:          msg.ID,
		Sender:      proto.UserSummary{ID: event.From.ID, Name: event.From.Name, Avatar: event.From.Avatar},
		Receiver:    proto.UserSummary{ID: event.To.ID, Name: event.To.Name, Avatar: event.To.Avatar},
		Content:     msg.Content,
		MessageType: string(msg.Type),
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	}
}
