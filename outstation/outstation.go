// Package outstation implements the DNP3 outstation (responding-station)
// task: request parsing and dispatch, the solicited/unsolicited
// confirm-wait state machine, select-before-operate tracking, restart
// handling, and the unsolicited event producer.
package outstation

import (
	"bytes"
	"time"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/dnp3go/dnp3/cursor"
	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/dnplog"
	"github.com/dnp3go/dnp3/objects"
)

// State is one of the outstation's three request-processing states.
type State int

const (
	StateIdle State = iota
	StateSolicitedConfirmWait
	StateUnsolicitedConfirmWait
)

// selectRecord tracks the most recent SELECT awaiting its OPERATE.
type selectRecord struct {
	valid bool
	index uint32
	bytes []byte
	at    time.Time
}

// Outstation holds one outstation session's protocol state. It is not safe
// for concurrent use from more than one goroutine — a channel task owns
// it and calls its methods from a single event loop.
type Outstation struct {
	cfg     Config
	db      *database.Database
	control ControlHandler
	app     Application
	info    Information
	log     dnplog.Logger

	state           State
	confirmSeq      byte
	confirmDeadline time.Time
	unsolRetries    int

	solSeq   byte
	unsolSeq byte

	sel selectRecord

	needTime      bool
	deviceRestart bool

	unsolEnabled [3]bool
}

// New creates an Outstation. cfg should already have had Valid called.
func New(cfg Config, db *database.Database, control ControlHandler, app Application, info Information) *Outstation {
	if info == nil {
		info = NopInformation{}
	}
	return &Outstation{
		cfg:           cfg,
		db:            db,
		control:       control,
		app:           app,
		info:          info,
		log:           dnplog.NewLogger(nil),
		needTime:      true,
		deviceRestart: true,
	}
}

// SetLogger replaces the outstation's logger, e.g. to attach per-
// association structured fields.
func (o *Outstation) SetLogger(l dnplog.Logger) { o.log = l }

func (o *Outstation) currentIIN() apdu.IIN {
	var iin apdu.IIN
	if o.needTime {
		iin = iin.Set1(apdu.IIN1NeedTime)
	}
	if o.deviceRestart {
		iin = iin.Set1(apdu.IIN1DeviceRestart)
	}
	if o.db.Events.Overflowed() {
		iin = iin.Set2(apdu.IIN2EventBufferOflow)
	}
	unwritten := o.db.Events.UnwrittenClasses()
	if unwritten[0] {
		iin = iin.Set1(apdu.IIN1Class1Events)
	}
	if unwritten[1] {
		iin = iin.Set1(apdu.IIN1Class2Events)
	}
	if unwritten[2] {
		iin = iin.Set1(apdu.IIN1Class3Events)
	}
	return iin
}

// HandleFragment processes one fully reassembled application fragment
// addressed to this outstation (link-layer/self-address/broadcast
// filtering is the channel's job). It returns the
// response fragment bytes to transmit, or ok=false when the request
// produces no response (broadcast, DirectOperateNoResponse, or a discarded
// malformed/out-of-state fragment).
func (o *Outstation) HandleFragment(now time.Time, broadcast bool, data []byte) (response []byte, ok bool) {
	hdr, err := apdu.ParseHeader(data)
	if err != nil {
		return nil, false
	}
	body := data[2:]

	if broadcast {
		o.info.BroadcastReceived(byte(hdr.Function))
		o.handleBroadcast(hdr, body)
		return nil, false
	}

	switch hdr.Function {
	case apdu.FuncConfirm:
		o.handleConfirm(hdr)
		return nil, false
	case apdu.FuncRead:
		return o.respond(hdr, o.buildReadResponse(now, hdr, body))
	case apdu.FuncWrite:
		return o.respond(hdr, o.handleWrite(body))
	case apdu.FuncSelect:
		return o.respond(hdr, o.handleSelect(now, body))
	case apdu.FuncOperate:
		return o.respond(hdr, o.handleOperate(now, body))
	case apdu.FuncDirectOperate:
		return o.respond(hdr, o.handleDirectOperate(body))
	case apdu.FuncDirectOperateNoResponse:
		o.handleDirectOperate(body)
		return nil, false
	case apdu.FuncColdRestart:
		return o.respond(hdr, o.handleRestart(o.app.ColdRestart))
	case apdu.FuncWarmRestart:
		return o.respond(hdr, o.handleRestart(o.app.WarmRestart))
	case apdu.FuncEnableUnsolicited:
		return o.respond(hdr, o.handleEnableUnsolicited(body, true))
	case apdu.FuncDisableUnsolicited:
		return o.respond(hdr, o.handleEnableUnsolicited(body, false))
	case apdu.FuncDelayMeasure:
		return o.respond(hdr, o.handleDelayMeasure())
	default:
		return o.respond(hdr, o.currentIIN().Set2(apdu.IIN2NoFuncCodeSupport), nil)
	}
}

func (o *Outstation) handleBroadcast(hdr apdu.Header, body []byte) {
	if !o.cfg.Features.Broadcast {
		return
	}
	switch hdr.Function {
	case apdu.FuncWrite:
		o.handleWrite(body)
	case apdu.FuncDirectOperateNoResponse, apdu.FuncDirectOperate:
		o.handleDirectOperate(body)
	}
}

// respond assembles a 2-byte application header plus IIN plus encoded
// object headers into a response fragment.
func (o *Outstation) respond(req apdu.Header, iin apdu.IIN, headers []objects.ObjectHeader) ([]byte, bool) {
	ctrl := apdu.Control{FIR: true, FIN: true, Seq: req.Control.Seq}

	w := cursor.NewWriter(make([]byte, 0, o.cfg.SolicitedBufferSize))
	if err := objects.Encode(w, headers); err != nil {
		o.log.Error("encode response objects: %v", err)
		iin = iin.Set2(apdu.IIN2ParameterError)
		headers = nil
		w = cursor.NewWriter(nil)
	}

	out := make([]byte, 0, 4+w.Len())
	out = append(out, ctrl.Value(), byte(apdu.FuncResponse), iin.IIN1, iin.IIN2)
	out = append(out, w.Bytes()...)
	return out, true
}

// buildReadResponse handles READ: class-0 integrity and class 1/2/3 event
// scans. Multi-fragment (FIN=0) splitting across several response
// fragments is not implemented — every response here is single-fragment,
// bounded by SolicitedBufferSize; a profile whose event backlog regularly
// exceeds one fragment needs that support added to respond/HandleFragment
// together.
func (o *Outstation) buildReadResponse(now time.Time, req apdu.Header, body []byte) (apdu.IIN, []objects.ObjectHeader) {
	reqHeaders, err := objects.DecodeRequest(body)
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}

	var out []objects.ObjectHeader
	eventClasses, wantClassZero := scanClassHeaders(reqHeaders)

	if wantClassZero {
		out = append(out, o.db.BuildClassZero()...)
	}
	hasConfirmableEvents := false
	if eventClasses[0] || eventClasses[1] || eventClasses[2] {
		events, truncated := o.db.Events.SelectForTransmit(eventClasses, o.cfg.SolicitedBufferSize, eventSize)
		if len(events) > 0 {
			out = append(out, buildEventHeaders(events)...)
			hasConfirmableEvents = true
			_ = truncated // FIN is always true per the single-fragment simplification above
		}
	}

	if hasConfirmableEvents {
		o.state = StateSolicitedConfirmWait
		o.confirmSeq = req.Control.Seq
		o.confirmDeadline = now.Add(o.cfg.ConfirmTimeout)
	}
	return o.currentIIN(), out
}

// scanClassHeaders reads a request's class-data qualifiers (group 60): var 1
// is the class-0 (static/integrity) marker, var 2/3/4 request class 1/2/3
// event data.
func scanClassHeaders(reqHeaders []objects.ObjectHeader) (classes [3]bool, wantClassZero bool) {
	for _, h := range reqHeaders {
		if h.Kind != objects.KindClassData {
			continue
		}
		switch h.Variation {
		case 1:
			wantClassZero = true
		case 2:
			classes[0] = true
		case 3:
			classes[1] = true
		case 4:
			classes[2] = true
		}
	}
	return classes, wantClassZero
}

// handleEnableUnsolicited implements both ENABLE_UNSOLICITED and
// DISABLE_UNSOLICITED: the request's class headers name which classes to
// toggle; a request with no class headers toggles all three, matching the
// common master behavior of sending a bare class-0 qualifier-less request.
func (o *Outstation) handleEnableUnsolicited(body []byte, enable bool) (apdu.IIN, []objects.ObjectHeader) {
	reqHeaders, err := objects.DecodeRequest(body)
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}
	classes, _ := scanClassHeaders(reqHeaders)
	if !classes[0] && !classes[1] && !classes[2] {
		classes = [3]bool{true, true, true}
	}
	for i, want := range classes {
		if want {
			o.unsolEnabled[i] = enable
		}
	}
	return o.currentIIN(), nil
}

func (o *Outstation) handleWrite(body []byte) (apdu.IIN, []objects.ObjectHeader) {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}
	for _, h := range headers {
		if h.Group == 50 {
			for _, item := range h.Items {
				t := item.Value.(objects.TimeAndDateInfo)
				if err := o.app.WriteAbsoluteTime(uint64(t.Time)); err == nil {
					o.needTime = false
				}
			}
		}
	}
	return o.currentIIN(), nil
}

func (o *Outstation) handleDirectOperate(body []byte) (apdu.IIN, []objects.ObjectHeader) {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}
	echo := make([]objects.ObjectHeader, len(headers))
	for i, h := range headers {
		echo[i] = h
		if h.Kind != objects.KindCROB {
			continue
		}
		items := make([]objects.Item, len(h.Items))
		for j, item := range h.Items {
			crobObj := item.Value.(objects.ControlRelayOutputBlock)
			status := o.control.OperateCROB(item.Index, crobObj.CROB)
			crobObj.CROB.Status = status
			items[j] = objects.Item{Index: item.Index, Value: crobObj}
		}
		echo[i].Items = items
	}
	return o.currentIIN(), echo
}

func (o *Outstation) handleSelect(now time.Time, body []byte) (apdu.IIN, []objects.ObjectHeader) {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}
	echo := make([]objects.ObjectHeader, len(headers))
	o.sel = selectRecord{}
	for i, h := range headers {
		echo[i] = h
		if h.Kind != objects.KindCROB || len(h.Items) == 0 {
			continue
		}
		item := h.Items[0]
		crobObj := item.Value.(objects.ControlRelayOutputBlock)
		status := o.control.SelectCROB(item.Index, crobObj.CROB)
		if status == objects.StatusSuccess {
			o.sel = selectRecord{valid: true, index: item.Index, bytes: encodeCROBBytes(crobObj.CROB), at: now}
		}
		crobObj.CROB.Status = status
		echo[i].Items = []objects.Item{{Index: item.Index, Value: crobObj}}
	}
	return o.currentIIN(), echo
}

func (o *Outstation) handleOperate(now time.Time, body []byte) (apdu.IIN, []objects.ObjectHeader) {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return o.currentIIN().Set2(apdu.IIN2ParameterError), nil
	}
	echo := make([]objects.ObjectHeader, len(headers))
	for i, h := range headers {
		echo[i] = h
		if h.Kind != objects.KindCROB || len(h.Items) == 0 {
			continue
		}
		item := h.Items[0]
		crobObj := item.Value.(objects.ControlRelayOutputBlock)

		status := objects.StatusNoSelect
		if o.sel.valid && o.sel.index == item.Index &&
			now.Sub(o.sel.at) <= o.cfg.SelectTimeout &&
			bytes.Equal(o.sel.bytes, encodeCROBBytes(crobObj.CROB)) {
			status = o.control.OperateCROB(item.Index, crobObj.CROB)
		}
		o.sel = selectRecord{}
		crobObj.CROB.Status = status
		echo[i].Items = []objects.Item{{Index: item.Index, Value: crobObj}}
	}
	return o.currentIIN(), echo
}

// encodeCROBBytes serializes the operate-relevant fields of a CROB for the
// select/operate byte-compare; Status is excluded since the master's
// SELECT and OPERATE requests both carry it as a placeholder the
// outstation itself fills in.
func encodeCROBBytes(c objects.CROB) []byte {
	cc := c.Code.Value()
	return []byte{
		cc,
		byte(c.Count),
		byte(c.OnTime), byte(c.OnTime >> 8), byte(c.OnTime >> 16), byte(c.OnTime >> 24),
		byte(c.OffTime), byte(c.OffTime >> 8), byte(c.OffTime >> 16), byte(c.OffTime >> 24),
	}
}

func (o *Outstation) handleRestart(fn func() RestartDelay) (apdu.IIN, []objects.ObjectHeader) {
	delay := fn()
	o.deviceRestart = false
	o.needTime = true

	if delay.Mode == RestartNotSupported {
		return o.currentIIN().Set2(apdu.IIN2NoFuncCodeSupport), nil
	}
	variation := byte(2)
	if delay.Mode == RestartSeconds {
		variation = 1
	}
	h := objects.ObjectHeader{
		Group: 52, Variation: variation, Qualifier: objects.QualCount8, Kind: objects.KindTimeDelay,
		Items: []objects.Item{{Index: 0, Value: objects.TimeDelayInfo{Value: delay.Value}}},
	}
	return o.currentIIN(), []objects.ObjectHeader{h}
}

func (o *Outstation) handleDelayMeasure() (apdu.IIN, []objects.ObjectHeader) {
	h := objects.ObjectHeader{
		Group: 52, Variation: 2, Qualifier: objects.QualCount8, Kind: objects.KindTimeDelay,
		Items: []objects.Item{{Index: 0, Value: objects.TimeDelayInfo{Value: 0}}},
	}
	return o.currentIIN(), []objects.ObjectHeader{h}
}

func (o *Outstation) handleConfirm(hdr apdu.Header) {
	switch o.state {
	case StateSolicitedConfirmWait:
		if hdr.Control.Seq == o.confirmSeq {
			o.db.Events.ConfirmInFlight()
			o.state = StateIdle
		} else {
			o.info.WrongSolicitedConfirmSeq(o.confirmSeq, hdr.Control.Seq)
		}
	case StateUnsolicitedConfirmWait:
		if hdr.Control.Seq == o.confirmSeq {
			o.db.Events.ConfirmInFlight()
			o.state = StateIdle
			o.unsolRetries = 0
		}
	}
}

// CheckConfirmTimeout reverts any in-flight events and returns to Idle when
// a confirm-wait deadline has elapsed without a matching confirm. The
// caller (the channel event loop) invokes this on its timer tick.
func (o *Outstation) CheckConfirmTimeout(now time.Time) {
	if o.state == StateIdle || o.confirmDeadline.IsZero() || now.Before(o.confirmDeadline) {
		return
	}
	o.db.Events.RevertInFlight()
	if o.state == StateSolicitedConfirmWait {
		o.info.SolicitedConfirmTimeout()
	} else {
		o.info.UnsolicitedConfirmTimeout()
	}
	o.state = StateIdle
}

// CheckUnsolicited builds an unsolicited response fragment when idle,
// unsolicited reporting is enabled for at least one class (via
// ENABLE_UNSOLICITED), and the event buffer holds events in an enabled class
// not already in flight.
func (o *Outstation) CheckUnsolicited(now time.Time) ([]byte, bool) {
	if !o.cfg.Features.Unsolicited || o.state != StateIdle {
		return nil, false
	}
	if !o.unsolEnabled[0] && !o.unsolEnabled[1] && !o.unsolEnabled[2] {
		return nil, false
	}
	events, _ := o.db.Events.SelectForTransmit(o.unsolEnabled, o.cfg.UnsolicitedBufferSize, eventSize)
	if len(events) == 0 {
		return nil, false
	}

	o.unsolSeq = apdu.NextSeq(o.unsolSeq)
	ctrl := apdu.Control{FIR: true, FIN: true, CON: true, UNS: true, Seq: o.unsolSeq}
	w := cursor.NewWriter(make([]byte, 0, o.cfg.UnsolicitedBufferSize))
	_ = objects.Encode(w, buildEventHeaders(events))

	iin := o.currentIIN()
	out := make([]byte, 0, 4+w.Len())
	out = append(out, ctrl.Value(), byte(apdu.FuncUnsolicitedResponse), iin.IIN1, iin.IIN2)
	out = append(out, w.Bytes()...)

	o.confirmSeq = o.unsolSeq
	o.confirmDeadline = now.Add(o.cfg.ConfirmTimeout)
	o.state = StateUnsolicitedConfirmWait
	return out, true
}
