package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinham"
	"github.com/fumin/spinham/mat"
	"github.com/fumin/spinham/util"
)

const (
	fnameEigen      = "eig.csv"
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"
	fnameDB         = "hamiltonian.db"
	dirHamiltonian  = "hamiltonian"
	dirFields       = "fields"
)

var (
	runDir     = flag.String("d", filepath.Join("runs", "spinham"), "run directory")
	configPath = flag.String("c", "system.yaml", "system description")
	disk       = flag.Bool("disk", false, "assemble the hamiltonian in sqlite")
)

type ChiT struct {
	Temperature float64
	Tensor      [3][3]float64
}

type GTensor struct {
	G    [3]float64
	Axes [3][3]float64
}

type Statistics struct {
	Field    [3]float64
	Energies []float64
	ChiT     []ChiT
	GTensor  *GTensor `json:",omitempty"`
}

// operators holds the zero field hamiltonian and the total moment of a system.
type operators struct {
	h mat.Matrix
	m [3]mat.Matrix
}

func assemble(dir string, sys *spinham.System, onDisk bool) (operators, error) {
	var ops operators
	for k := range ops.m {
		ops.m[k] = mat.COOZeros(1, 1)
	}
	buf := mat.COOZeros(1, 1)
	if err := sys.Moment(ops.m, buf, 1); err != nil {
		return ops, errors.Wrap(err, "")
	}

	hc, err := assembleHamiltonian(dir, sys, buf, onDisk)
	if err != nil {
		return ops, errors.Wrap(err, "")
	}
	lo, hi := hc.Gershgorin()
	log.Printf("dim %d nonzero %d spectrum within [%f, %f]", hc.Rows(), len(hc.Data), lo, hi)
	ops.h = hc
	return ops, nil
}

// assembleHamiltonian builds the zero field hamiltonian and writes it to dir,
// or reads it back if a previous run already did.
func assembleHamiltonian(dir string, sys *spinham.System, buf mat.Matrix, onDisk bool) (*mat.COO, error) {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		hc, err := mat.ReadCOO(dir)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if hc.Rows() != sys.Dim() {
			return nil, errors.Errorf("%s dim %d, expected %d", dir, hc.Rows(), sys.Dim())
		}
		return hc, nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "")
	}

	var h mat.Matrix = mat.COOZeros(1, 1)
	if onDisk {
		hd := mat.DiskM(filepath.Join(dir, fnameDB), [][]complex128{{0}})
		defer hd.Close()
		h = hd
	}
	if err := sys.Hamiltonian(h, buf); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := h.WriteCOO(dir); err != nil {
		return nil, errors.Wrap(err, "")
	}
	hc := h.COO()

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return hc, nil
}

func solve(dir string, cfg Config, ops operators, field [3]float64) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	opt := spinham.NewDiagonalizeOptions().Moment(ops.m).Field(field)
	if cfg.Tol > 0 {
		opt = opt.Tol(cfg.Tol)
	}
	eig, err := spinham.Diagonalize(ops.h, opt)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := writeEig(dir, eig.ValVecs()); err != nil {
		return errors.Wrap(err, "")
	}
	if err := writeStatistics(dir, cfg, ops, eig, field); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func writeStatistics(dir string, cfg Config, ops operators, eig spinham.Eigen, field [3]float64) error {
	stats := Statistics{Field: field, Energies: eig.Values}
	for _, temperature := range cfg.Temperatures {
		chiT, err := eig.ChiT(ops.m, temperature)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%f", temperature))
		}
		stats.ChiT = append(stats.ChiT, ChiT{Temperature: temperature, Tensor: array3(chiT)})
	}
	if cfg.States > 0 {
		gt, err := eig.GTensor(ops.m, cfg.States)
		if err != nil {
			return errors.Wrap(err, "")
		}
		stats.GTensor = &GTensor{G: gt.G, Axes: array3(gt.Axes)}
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameStatistics), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func array3(a gmat.Matrix) [3][3]float64 {
	var arr [3][3]float64
	for i := range 3 {
		for j := range 3 {
			arr[i][j] = a.At(i, j)
		}
	}
	return arr
}

// fieldName names the run directory of field b, and parses back to b exactly.
func fieldName(b [3]float64) string {
	parts := make([]string, 0, len(b))
	for _, v := range b {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, "_")
}

func gather(dir string) ([]Statistics, error) {
	stats := make([]Statistics, 0)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, ent := range entries {
		// Parse for the field.
		bstr := strings.Split(ent.Name(), "_")
		if len(bstr) != 3 {
			return nil, errors.Errorf("%#v", ent.Name())
		}
		var b [3]float64
		for i, s := range bstr {
			b[i], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent.Name()))
			}
		}

		sb, err := os.ReadFile(filepath.Join(dir, ent.Name(), fnameStatistics))
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent.Name()))
		}
		s := Statistics{}
		if err := json.Unmarshal(sb, &s); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent.Name()))
		}
		if s.Field != b {
			return nil, errors.Errorf("%#v %v", ent.Name(), s.Field)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func writeEig(dir string, vvs []mat.ValVec) error {
	fpath := filepath.Join(dir, fnameEigen)
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	row := make([]string, len(vvs))
	for j, vv := range vvs {
		row[j] = strconv.FormatFloat(vv.Val, 'f', -1, 64)
	}
	if err1 := w.Write(row); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	for i := range len(vvs[0].Vec) {
		for j, vv := range vvs {
			row[j] = strconv.FormatComplex(vv.Vec[i], 'f', -1, 128)
		}
		if err1 := w.Write(row); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sys, err := cfg.System()
	if err != nil {
		return errors.Wrap(err, "")
	}
	log.Printf("%v dim %d", sys.Order(), sys.Dim())

	ops, err := assemble(filepath.Join(*runDir, dirHamiltonian), sys, *disk)
	if err != nil {
		return errors.Wrap(err, "")
	}

	// Solve for every field.
	fieldsDir := filepath.Join(*runDir, dirFields)
	throttler := util.NewSkipThrottler(5 * time.Second)
	for i, f := range cfg.Fields {
		b := [3]float64{f[0], f[1], f[2]}
		if err := solve(filepath.Join(fieldsDir, fieldName(b)), cfg, ops, b); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%v", b))
		}
		if throttler.Ok() {
			log.Printf("%d/%d %v", i+1, len(cfg.Fields), b)
		}
	}

	// Gather results and print them.
	stats, err := gather(fieldsDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("bx,by,bz,t,e0,e1,chitxx,chityy,chitzz\n")
	for _, s := range stats {
		e1 := s.Energies[0]
		if len(s.Energies) > 1 {
			e1 = s.Energies[1]
		}
		for _, c := range s.ChiT {
			fmt.Printf("%f,%f,%f,%f,%f,%f,%g,%g,%g\n", s.Field[0], s.Field[1], s.Field[2], c.Temperature, s.Energies[0], e1, c.Tensor[0][0], c.Tensor[1][1], c.Tensor[2][2])
		}
	}
	return nil
}
