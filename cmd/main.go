package main

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	clr "github.com/wanglei-coder/clrfile"
)

var (
	filename string
	debug    bool
)

func init() {
	flag.StringVar(&filename, "filename", "", "Please enter the file path")
	flag.BoolVar(&debug, "debug", false, "Log decoding steps")
	flag.Parse()
}

type Info struct {
	MachineType     uint16
	Kind            string
	CompilationTime int64
	RuntimeVersion  string
	MetadataVersion string
	EntryPointToken string
	Module          *Module
	Streams         []clr.StreamHeader
	Tables          []*Table
	Sections        []*Section
	Methods         []*Method
	ResourceDetails []*ResourceDetail
	Overlay         *Overlay
}

type Overlay struct {
	MD5      string
	FileType string
	Offset   int64
	Size     int64
	Entropy  float64
}

type Module struct {
	Name string
	Mvid string
}

type Table struct {
	Name    string
	Rows    uint32
	RowSize uint32
	Sorted  bool
}

type Section struct {
	Name           string
	MD5            string
	Flags          string
	RawSize        uint32
	VirtualAddress uint32
	VirtualSize    uint32
	Entropy        float64
}

type Method struct {
	Name     string
	RVA      uint32
	Fat      bool
	MaxStack uint16
	CodeSize int
}

type ResourceDetail struct {
	Name     string
	FileType string
	SHA256   string
	Size     int
	Entropy  float64
}

func getSections(f *clr.File) []*Section {
	sections := make([]*Section, 0, f.NumberOfSections)
	for _, s := range f.Sections {
		var section Section
		section.Name = s.Name
		section.RawSize = s.SizeOfRawData
		section.VirtualAddress = s.VirtualAddress
		section.VirtualSize = s.VirtualSize
		section.Flags = s.Flags()
		section.MD5 = s.MD5()
		section.Entropy = s.Entropy()
		sections = append(sections, &section)
	}
	return sections
}

func getTables(f *clr.File) []*Table {
	if f.Tables == nil {
		return nil
	}
	tables := make([]*Table, 0)
	for id := clr.TableID(0); id < clr.TableCount; id++ {
		if !f.Tables.HasTable(id) {
			continue
		}
		info := f.Tables.Info(id)
		tables = append(tables, &Table{
			Name:    id.String(),
			Rows:    info.Rows,
			RowSize: info.RowSize,
			Sorted:  f.Tables.IsSorted(id),
		})
	}
	return tables
}

func getModule(f *clr.File) *Module {
	m, err := f.Module()
	if err != nil {
		return nil
	}
	return &Module{Name: m.Name, Mvid: m.Mvid.String()}
}

func getMethods(f *clr.File) []*Method {
	if f.Tables == nil {
		return nil
	}
	methods := make([]*Method, 0)
	for row := uint32(1); row <= f.Tables.RowCount(clr.TableMethodDef); row++ {
		md, err := f.MethodDef(row)
		if err != nil || md.RVA == 0 {
			continue
		}
		body, err := f.MethodBody(md.RVA)
		if err != nil {
			continue
		}
		methods = append(methods, &Method{
			Name:     md.Name,
			RVA:      md.RVA,
			Fat:      body.Fat,
			MaxStack: body.MaxStack,
			CodeSize: len(body.Code),
		})
	}
	return methods
}

// getResourceDetails describes the resources embedded in the image. Rows
// whose implementation points at another file or assembly are skipped.
func getResourceDetails(f *clr.File) []*ResourceDetail {
	if f.Tables == nil {
		return nil
	}
	resourceDetails := make([]*ResourceDetail, 0)
	for row := uint32(1); row <= f.Tables.RowCount(clr.TableManifestResource); row++ {
		v, err := f.Tables.Values(clr.TableManifestResource, row)
		if err != nil || v[3] != 0 {
			continue
		}
		data, err := f.ManifestResource(v[0])
		if err != nil {
			continue
		}
		rd := new(ResourceDetail)
		rd.Name, _ = f.Strings.StringAt(v[2])
		rd.Size = len(data)
		rd.SHA256 = fmt.Sprintf("%x", sha256.Sum256(data))
		rd.FileType = GetFileType(data)
		var e clr.EntropyCalculator
		_, _ = e.Write(data)
		rd.Entropy = e.Sum()
		resourceDetails = append(resourceDetails, rd)
	}
	return resourceDetails
}

func getOverlay(f *clr.File) *Overlay {
	rs := f.Overlay()
	if rs == nil {
		return nil
	}

	overlay := Overlay{
		Offset: f.OverlayOffset(),
		Size:   rs.Size(),
	}

	hasher := md5.New()
	var entropyCalculator clr.EntropyCalculator
	ws := io.MultiWriter(hasher, &entropyCalculator)
	_, _ = io.Copy(ws, rs)
	overlay.MD5 = hex.EncodeToString(hasher.Sum(nil))
	overlay.Entropy = entropyCalculator.Sum()

	data := make([]byte, 1024)
	n, _ := rs.ReadAt(data, 0)
	overlay.FileType = GetFileType(data[:n])
	return &overlay
}

func main() {
	var opts []clr.Option
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		defer logger.Sync()
		opts = append(opts, clr.WithLogger(logger))
	}

	f, err := clr.NewFile(filename, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	info := Info{
		MachineType:     f.Machine,
		Kind:            f.Kind.String(),
		CompilationTime: f.TimeDateStamp.Unix(),
		RuntimeVersion:  fmt.Sprintf("%d.%d", f.RuntimeHeader.MajorRuntimeVersion, f.RuntimeHeader.MinorRuntimeVersion),
		MetadataVersion: f.Metadata.Version,
		EntryPointToken: f.RuntimeHeader.EntryPointToken.String(),
		Module:          getModule(f),
		Streams:         f.Metadata.Streams,
		Tables:          getTables(f),
		Sections:        getSections(f),
		Methods:         getMethods(f),
		ResourceDetails: getResourceDetails(f),
		Overlay:         getOverlay(f),
	}

	data, _ := json.MarshalIndent(&info, "", "    ")
	fmt.Printf("%s\n", data)
}

func GetFileType(data []byte) string {
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return "Data"
	}
	return kind.MIME.Value
}
