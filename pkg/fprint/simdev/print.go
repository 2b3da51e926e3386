package simdev

import (
	"bytes"
	"encoding/json"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// serialMagic prefixes every serialized simulated print.
const serialMagic = "SIMFP1\n"

type print struct {
	driver         string
	deviceID       string
	finger         int
	username       string
	hasUsername    bool
	description    string
	hasDescription bool
	date           backend.Date
	hasDate        bool
	key            string
	enrolled       bool
	stored         bool
	image          backend.Handle
}

// record is the serialized form of a print. Images are not kept.
type record struct {
	Driver       string        `json:"driver"`
	DeviceID     string        `json:"device_id"`
	Finger       int           `json:"finger"`
	Username     *string       `json:"username,omitempty"`
	Description  *string       `json:"description,omitempty"`
	EnrollDate   *backend.Date `json:"enroll_date,omitempty"`
	Template     string        `json:"template"`
	DeviceStored bool          `json:"device_stored,omitempty"`
}

// scanPrint builds the print of a single scan. Callers hold s.mu.
func (s *Sim) scanPrint(d *device, key string) *print {
	p := &print{driver: d.cfg.Driver, deviceID: d.cfg.ID, key: key}
	if d.cfg.KeepImages {
		p.image = s.alloc(&object{kind: KindImage, image: newImage(d.cfg, key)})
	}
	return p
}

func (s *Sim) printField(h backend.Handle, op string, f func(p *print)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.lookup(h, KindPrint, op); o != nil {
		f(o.print)
	}
}

// PrintNew implements the native surface.
func (s *Sim) PrintNew(h backend.Handle) backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.lookup(h, KindDevice, "print new")
	if o == nil {
		return backend.Null
	}
	return s.alloc(&object{kind: KindPrint, print: &print{driver: o.dev.cfg.Driver, deviceID: o.dev.cfg.ID}})
}

// PrintDriver implements the native surface.
func (s *Sim) PrintDriver(h backend.Handle) (v string) {
	s.printField(h, "print driver", func(p *print) { v = p.driver })
	return v
}

// PrintDeviceID implements the native surface.
func (s *Sim) PrintDeviceID(h backend.Handle) (v string) {
	s.printField(h, "print device id", func(p *print) { v = p.deviceID })
	return v
}

// PrintDeviceStored implements the native surface.
func (s *Sim) PrintDeviceStored(h backend.Handle) (v bool) {
	s.printField(h, "print device stored", func(p *print) { v = p.stored })
	return v
}

// PrintImage implements the native surface. The image is borrowed from the
// print.
func (s *Sim) PrintImage(h backend.Handle) (v backend.Handle) {
	s.printField(h, "print image", func(p *print) { v = p.image })
	return v
}

// PrintFinger implements the native surface.
func (s *Sim) PrintFinger(h backend.Handle) (v int) {
	s.printField(h, "print finger", func(p *print) { v = p.finger })
	return v
}

// PrintUsername implements the native surface.
func (s *Sim) PrintUsername(h backend.Handle) (v string, ok bool) {
	s.printField(h, "print username", func(p *print) { v, ok = p.username, p.hasUsername })
	return v, ok
}

// PrintDescription implements the native surface.
func (s *Sim) PrintDescription(h backend.Handle) (v string, ok bool) {
	s.printField(h, "print description", func(p *print) { v, ok = p.description, p.hasDescription })
	return v, ok
}

// PrintEnrollDate implements the native surface.
func (s *Sim) PrintEnrollDate(h backend.Handle) (v backend.Date, ok bool) {
	s.printField(h, "print enroll date", func(p *print) { v, ok = p.date, p.hasDate })
	return v, ok
}

// PrintSetFinger implements the native surface.
func (s *Sim) PrintSetFinger(h backend.Handle, finger int) {
	s.printField(h, "print set finger", func(p *print) { p.finger = finger })
}

// PrintSetUsername implements the native surface.
func (s *Sim) PrintSetUsername(h backend.Handle, username string) {
	s.printField(h, "print set username", func(p *print) { p.username, p.hasUsername = username, true })
}

// PrintSetDescription implements the native surface.
func (s *Sim) PrintSetDescription(h backend.Handle, description string) {
	s.printField(h, "print set description", func(p *print) { p.description, p.hasDescription = description, true })
}

// PrintSetEnrollDate implements the native surface.
func (s *Sim) PrintSetEnrollDate(h backend.Handle, date backend.Date) {
	s.printField(h, "print set enroll date", func(p *print) { p.date, p.hasDate = date, true })
}

// PrintSerialize implements the native surface. Prints without template data
// cannot be serialized.
func (s *Sim) PrintSerialize(h backend.Handle, errOut *backend.Handle) (backend.Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.lookup(h, KindPrint, "print serialize")
	if o == nil {
		s.fail(errOut, deviceFailure(backend.DeviceErrorDataInvalid, "Invalid print"))
		return backend.Buffer{}, false
	}
	p := o.print
	if p.key == "" {
		s.fail(errOut, deviceFailure(backend.DeviceErrorDataInvalid, "The print has no template data"))
		return backend.Buffer{}, false
	}
	rec := record{
		Driver:       p.driver,
		DeviceID:     p.deviceID,
		Finger:       p.finger,
		Template:     p.key,
		DeviceStored: p.stored,
	}
	if p.hasUsername {
		rec.Username = &p.username
	}
	if p.hasDescription {
		rec.Description = &p.description
	}
	if p.hasDate {
		rec.EnrollDate = &p.date
	}
	body, err := json.Marshal(rec)
	if err != nil {
		s.fail(errOut, deviceFailure(backend.DeviceErrorGeneral, err.Error()))
		return backend.Buffer{}, false
	}
	return s.newBuffer(append([]byte(serialMagic), body...)), true
}

// PrintDeserialize implements the native surface.
func (s *Sim) PrintDeserialize(data []byte, errOut *backend.Handle) backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := bytes.CutPrefix(data, []byte(serialMagic))
	if !ok {
		s.fail(errOut, deviceFailure(backend.DeviceErrorDataInvalid, "Data is not a serialized print"))
		return backend.Null
	}
	var rec record
	if err := json.Unmarshal(body, &rec); err != nil {
		s.fail(errOut, deviceFailure(backend.DeviceErrorDataInvalid, "Corrupt print data: "+err.Error()))
		return backend.Null
	}
	if rec.Template == "" {
		s.fail(errOut, deviceFailure(backend.DeviceErrorDataInvalid, "The print has no template data"))
		return backend.Null
	}
	p := &print{
		driver:   rec.Driver,
		deviceID: rec.DeviceID,
		finger:   rec.Finger,
		key:      rec.Template,
		enrolled: true,
		stored:   rec.DeviceStored,
	}
	if rec.Username != nil {
		p.username, p.hasUsername = *rec.Username, true
	}
	if rec.Description != nil {
		p.description, p.hasDescription = *rec.Description, true
	}
	if rec.EnrollDate != nil {
		p.date, p.hasDate = *rec.EnrollDate, true
	}
	return s.alloc(&object{kind: KindPrint, print: p})
}

// PrintCompatible implements the native surface.
func (s *Sim) PrintCompatible(ph, dh backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	po := s.lookup(ph, KindPrint, "print compatible")
	do := s.lookup(dh, KindDevice, "print compatible")
	if po == nil || do == nil {
		return false
	}
	return po.print.driver == do.dev.cfg.Driver && po.print.deviceID == do.dev.cfg.ID
}

// PrintEqual implements the native surface. Prints are equal when they come
// from the same driver and device and carry the same template data.
func (s *Sim) PrintEqual(a, b backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ao := s.lookup(a, KindPrint, "print equal")
	bo := s.lookup(b, KindPrint, "print equal")
	if ao == nil || bo == nil {
		return false
	}
	pa, pb := ao.print, bo.print
	return pa.key != "" && pa.key == pb.key && pa.driver == pb.driver && pa.deviceID == pb.deviceID
}
