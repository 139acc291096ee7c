package loader

import (
	"encoding/xml"
)

// The xml types mirror the SVD markup. Optional and required values are
// pointers so that a missing element can be told apart from an empty one.

type xmlDevice struct {
	XMLName     xml.Name        `xml:"device"`
	Name        *string         `xml:"name"`
	Description *string         `xml:"description"`
	Size        *string         `xml:"size"`
	Peripherals []xmlPeripheral `xml:"peripherals>peripheral"`
}

type xmlPeripheral struct {
	DerivedFrom   string            `xml:"derivedFrom,attr"`
	Name          *string           `xml:"name"`
	Description   *string           `xml:"description"`
	BaseAddress   *string           `xml:"baseAddress"`
	Size          *string           `xml:"size"`
	AddressBlocks []xmlAddressBlock `xml:"addressBlock"`
	Interrupts    []xmlInterrupt    `xml:"interrupt"`
	Registers     *xmlRegisterList  `xml:"registers"`
}

type xmlAddressBlock struct {
	Offset *string `xml:"offset"`
	Size   *string `xml:"size"`
}

type xmlInterrupt struct {
	Name        *string `xml:"name"`
	Description *string `xml:"description"`
	Value       *string `xml:"value"`
}

type xmlDim struct {
	Dim          *string
	DimIncrement *string
	DimIndex     *string
}

type xmlRegister struct {
	Name          *string
	Description   *string
	AddressOffset *string
	Size          *string
	xmlDim
}

type xmlCluster struct {
	Name          *string
	Description   *string
	AddressOffset *string
	Size          *string
	xmlDim
	Children xmlRegisterList
}

// registerNode is either a register or a cluster, kept in document order.
type registerNode struct {
	register *xmlRegister
	cluster  *xmlCluster
}

type xmlRegisterList struct {
	nodes []registerNode
}

// UnmarshalXML keeps registers and clusters interleaved in declaration order,
// which the default slice decoding would split into two lists.
func (l *xmlRegisterList) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeChildren(d, func(child xml.StartElement) error {
		return l.decodeNode(d, child)
	})
}

func (l *xmlRegisterList) decodeNode(d *xml.Decoder, child xml.StartElement) error {
	switch child.Name.Local {
	case "register":
		var reg xmlRegister
		if err := decodeChildren(d, func(field xml.StartElement) error {
			return reg.decodeField(d, field)
		}); err != nil {
			return err
		}
		l.nodes = append(l.nodes, registerNode{register: &reg})

	case "cluster":
		var cluster xmlCluster
		if err := decodeChildren(d, func(field xml.StartElement) error {
			return cluster.decodeField(d, field)
		}); err != nil {
			return err
		}
		l.nodes = append(l.nodes, registerNode{cluster: &cluster})

	default:
		return d.Skip()
	}
	return nil
}

func (r *xmlRegister) decodeField(d *xml.Decoder, field xml.StartElement) error {
	switch field.Name.Local {
	case "name":
		return decodeString(d, field, &r.Name)
	case "description":
		return decodeString(d, field, &r.Description)
	case "addressOffset":
		return decodeString(d, field, &r.AddressOffset)
	case "size":
		return decodeString(d, field, &r.Size)
	default:
		return r.xmlDim.decodeField(d, field)
	}
}

func (c *xmlCluster) decodeField(d *xml.Decoder, field xml.StartElement) error {
	switch field.Name.Local {
	case "name":
		return decodeString(d, field, &c.Name)
	case "description":
		return decodeString(d, field, &c.Description)
	case "addressOffset":
		return decodeString(d, field, &c.AddressOffset)
	case "size":
		return decodeString(d, field, &c.Size)
	case "register", "cluster":
		return c.Children.decodeNode(d, field)
	default:
		return c.xmlDim.decodeField(d, field)
	}
}

func (dim *xmlDim) decodeField(d *xml.Decoder, field xml.StartElement) error {
	switch field.Name.Local {
	case "dim":
		return decodeString(d, field, &dim.Dim)
	case "dimIncrement":
		return decodeString(d, field, &dim.DimIncrement)
	case "dimIndex":
		return decodeString(d, field, &dim.DimIndex)
	default:
		return d.Skip()
	}
}

// decodeChildren calls fn for every direct child element until the end of
// the current element is reached. fn has to consume the child element.
func decodeChildren(d *xml.Decoder, fn func(child xml.StartElement) error) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeString(d *xml.Decoder, field xml.StartElement, dst **string) error {
	var s string
	if err := d.DecodeElement(&s, &field); err != nil {
		return err
	}
	*dst = &s
	return nil
}
