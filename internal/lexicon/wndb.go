package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wordnetFiles names the per-part-of-speech files of a WordNet database
// directory (index.noun, data.noun, noun.exc, ...).
var wordnetFiles = []struct {
	pos  POS
	name string
}{
	{Noun, "noun"},
	{Verb, "verb"},
	{Adjective, "adj"},
	{Adverb, "adv"},
}

// adjectiveMarkerRe matches the syntactic marker WordNet appends to some
// adjective lemmas in data.adj, e.g. "galore(ip)".
var adjectiveMarkerRe = regexp.MustCompile(`\((a|p|ip)\)$`)

// hyponymPointer is the data-file pointer symbol for a direct hyponym.
// Instance hyponyms ("~i") are not part of the "more specific than" relation.
const hyponymPointer = "~"

type synsetKey struct {
	pos    POS // file part of speech (never AdjectiveSat)
	offset string
}

type pointer struct {
	symbol string
	target synsetKey
}

type synsetRecord struct {
	key      synsetKey
	ssType   POS
	words    []string
	pointers []pointer
	gloss    string
}

// ReadWordNet parses a WordNet 3.x database directory into ontology data.
// Sense keys follow the lemma.pos.NN convention: the synset's first lemma,
// its synset type, and the synset's 1-based position in that lemma's index
// entry.
func ReadWordNet(dir string) (Data, error) {
	index := make(map[POS]map[string][]string, len(wordnetFiles))
	var records []synsetRecord

	for _, f := range wordnetFiles {
		idx, err := readIndexFile(filepath.Join(dir, "index."+f.name))
		if err != nil {
			return Data{}, err
		}
		index[f.pos] = idx

		recs, err := readDataFile(filepath.Join(dir, "data."+f.name), f.pos)
		if err != nil {
			return Data{}, err
		}
		records = append(records, recs...)
	}

	names := make(map[synsetKey]SenseID, len(records))
	data := Data{Senses: make([]Sense, 0, len(records))}
	for _, rec := range records {
		if len(rec.words) == 0 {
			return Data{}, fmt.Errorf("synset %s/%s has no words", rec.key.pos, rec.key.offset)
		}
		lemma := strings.ToLower(rec.words[0])
		number := indexOf(index[rec.key.pos][lemma], rec.key.offset) + 1
		if number == 0 {
			return Data{}, fmt.Errorf("synset %s/%s: lemma %q not indexed", rec.key.pos, rec.key.offset, lemma)
		}
		id := NewSenseID(lemma, rec.ssType, number)
		names[rec.key] = id
		data.Senses = append(data.Senses, Sense{ID: id, Lemma: lemma, POS: rec.ssType, Number: number, Gloss: rec.gloss})
	}

	for _, rec := range records {
		parent := names[rec.key]
		for _, p := range rec.pointers {
			if p.symbol != hyponymPointer {
				continue
			}
			child, ok := names[p.target]
			if !ok {
				return Data{}, fmt.Errorf("synset %s: hyponym pointer to unknown synset %s/%s", parent, p.target.pos, p.target.offset)
			}
			data.Hyponyms = append(data.Hyponyms, Edge{Parent: parent, Child: child})
		}
	}

	for _, f := range wordnetFiles {
		lemmas := make([]string, 0, len(index[f.pos]))
		for lemma := range index[f.pos] {
			lemmas = append(lemmas, lemma)
		}
		sort.Strings(lemmas)
		for _, lemma := range lemmas {
			offsets := index[f.pos][lemma]
			entry := LemmaEntry{Lemma: lemma, POS: f.pos, Senses: make([]SenseID, 0, len(offsets))}
			for _, off := range offsets {
				id, ok := names[synsetKey{pos: f.pos, offset: off}]
				if !ok {
					return Data{}, fmt.Errorf("index.%s: lemma %q points at unknown synset %s", f.name, lemma, off)
				}
				entry.Senses = append(entry.Senses, id)
			}
			data.Lemmas = append(data.Lemmas, entry)
		}

		excs, err := readExceptionFile(filepath.Join(dir, f.name+".exc"), f.pos)
		if err != nil {
			return Data{}, err
		}
		data.Exceptions = append(data.Exceptions, excs...)
	}

	return data, nil
}

func indexOf(offsets []string, offset string) int {
	for i, o := range offsets {
		if o == offset {
			return i
		}
	}
	return -1
}

// readIndexFile parses lines of the form
//
//	lemma pos synset_cnt p_cnt [ptr_symbol...] sense_cnt tagsense_cnt synset_offset...
func readIndexFile(path string) (map[string][]string, error) {
	out := make(map[string][]string)
	err := scanLines(path, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return fmt.Errorf("%s:%d: too few fields", path, lineNo)
		}
		synsetCnt, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("%s:%d: synset_cnt: %w", path, lineNo, err)
		}
		ptrCnt, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("%s:%d: p_cnt: %w", path, lineNo, err)
		}
		start := 4 + ptrCnt + 2
		if len(fields) != start+synsetCnt {
			return fmt.Errorf("%s:%d: want %d offsets, got %d", path, lineNo, synsetCnt, len(fields)-start)
		}
		out[fields[0]] = fields[start:]
		return nil
	})
	return out, err
}

// readDataFile parses lines of the form
//
//	offset lex_filenum ss_type w_cnt word lex_id... p_cnt [ptr offset pos src_tgt]... [frames] | gloss
func readDataFile(path string, filePOS POS) ([]synsetRecord, error) {
	var out []synsetRecord
	err := scanLines(path, func(lineNo int, line string) error {
		body, gloss, _ := strings.Cut(line, "|")
		fields := strings.Fields(body)
		if len(fields) < 5 {
			return fmt.Errorf("%s:%d: too few fields", path, lineNo)
		}
		ssType, err := ParsePOS(fields[2])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		wordCnt, err := strconv.ParseInt(fields[3], 16, 32)
		if err != nil {
			return fmt.Errorf("%s:%d: w_cnt: %w", path, lineNo, err)
		}
		pos := 4
		if len(fields) < pos+2*int(wordCnt)+1 {
			return fmt.Errorf("%s:%d: truncated word list", path, lineNo)
		}
		rec := synsetRecord{
			key:    synsetKey{pos: filePOS, offset: fields[0]},
			ssType: ssType,
			gloss:  strings.TrimSpace(gloss),
		}
		for i := 0; i < int(wordCnt); i++ {
			w := adjectiveMarkerRe.ReplaceAllString(fields[pos], "")
			rec.words = append(rec.words, w)
			pos += 2
		}

		ptrCnt, err := strconv.Atoi(fields[pos])
		if err != nil {
			return fmt.Errorf("%s:%d: p_cnt: %w", path, lineNo, err)
		}
		pos++
		if len(fields) < pos+4*ptrCnt {
			return fmt.Errorf("%s:%d: truncated pointer list", path, lineNo)
		}
		for i := 0; i < ptrCnt; i++ {
			targetPOS, err := ParsePOS(fields[pos+2])
			if err != nil {
				return fmt.Errorf("%s:%d: pointer %d: %w", path, lineNo, i, err)
			}
			rec.pointers = append(rec.pointers, pointer{
				symbol: fields[pos],
				target: synsetKey{pos: targetPOS.Index(), offset: fields[pos+1]},
			})
			pos += 4
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// readExceptionFile parses "form base [base...]" lines. A missing file is
// not an error; exception lists are optional.
func readExceptionFile(path string, pos POS) ([]Exception, error) {
	var out []Exception
	err := scanLines(path, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("%s:%d: want form and base", path, lineNo)
		}
		out = append(out, Exception{POS: pos, Form: fields[0], Bases: fields[1:]})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}

// scanLines calls fn for every non-blank line that is not part of the
// license header (header lines start with a space).
func scanLines(path string, fn func(lineNo int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading wordnet file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, " ") {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
