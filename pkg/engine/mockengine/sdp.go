package mockengine

import (
	"fmt"

	"github.com/pion/sdp/v3"
)

// fabricateSDP строит синтаксически валидное SDP по текущему набору
// transceiver'ов: по одной m-секции на transceiver, с mid и направлением.
// Маршалинг через pion/sdp гарантирует корректный синтаксис.
func (s *sessionState) fabricateSDP() (string, error) {
	s.sdpVersion++
	desc := sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      3735928559,
			SessionVersion: s.sdpVersion,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName:      "-",
		TimeDescriptions: []sdp.TimeDescription{{}},
	}

	for _, tr := range s.transceivers {
		kind := "audio"
		if tr.Receiver != nil && tr.Receiver.Track != nil && tr.Receiver.Track.Kind != "" {
			kind = tr.Receiver.Track.Kind
		}
		md := &sdp.MediaDescription{
			MediaName: sdp.MediaName{
				Media:   kind,
				Port:    sdp.RangedPort{Value: 9},
				Protos:  []string{"UDP", "TLS", "RTP", "SAVPF"},
				Formats: []string{"111"},
			},
			ConnectionInformation: &sdp.ConnectionInformation{
				NetworkType: "IN",
				AddressType: "IP4",
				Address:     &sdp.Address{Address: "0.0.0.0"},
			},
			Attributes: []sdp.Attribute{
				sdp.NewAttribute("mid", tr.Mid),
				sdp.NewPropertyAttribute(tr.Direction),
			},
		}
		desc.MediaDescriptions = append(desc.MediaDescriptions, md)
	}

	raw, err := desc.Marshal()
	if err != nil {
		return "", fmt.Errorf("mockengine: маршалинг SDP: %w", err)
	}
	return string(raw), nil
}

// validateSDP разбирает описание; невалидный синтаксис отклоняется до
// того, как описание попадёт в состояние сессии.
func validateSDP(raw string) error {
	if raw == "" {
		return fmt.Errorf("mockengine: пустое SDP")
	}
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return fmt.Errorf("mockengine: невалидное SDP: %w", err)
	}
	return nil
}
