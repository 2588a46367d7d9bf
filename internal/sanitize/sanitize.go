// Package sanitize는 Slack 텍스트를 게임 채팅 한 줄로 보낼 수 있게 정리합니다.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ellipsis는 잘린 텍스트 끝에 붙는 표시입니다.
const ellipsis = "…"

// rejected는 게임 서버가 채팅에서 거부하는 문자인지 확인합니다.
// §는 서식 코드 접두사이고, BMP 밖의 문자(이모지 등)는 게임 폰트에 없습니다.
func rejected(r rune) bool {
	return r == '§' || r > 0xFFFF || r == utf8.RuneError
}

// spaceOut은 줄바꿈과 탭을 공백으로 바꿉니다.
func spaceOut(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

func unprintable(r rune) bool {
	return r != ' ' && (!unicode.IsPrint(r) || unicode.IsControl(r))
}

// Clean은 텍스트를 NFKC로 정규화하고 게임이 받지 않는 문자를 제거한 뒤
// 연속 공백을 하나로 합칩니다. 반환값 bool은 원문이 바뀌었는지 여부입니다.
func Clean(text string) (string, bool) {
	t := transform.Chain(
		norm.NFKC,
		runes.Map(spaceOut),
		runes.Remove(runes.Predicate(unprintable)),
		runes.Remove(runes.Predicate(rejected)),
	)

	out, _, err := transform.String(t, text)
	if err != nil {
		out = strings.Map(func(r rune) rune {
			if unprintable(r) || rejected(r) {
				return -1
			}
			return spaceOut(r)
		}, text)
	}
	out = strings.Join(strings.Fields(out), " ")

	return out, out != text
}

// Truncate는 텍스트를 최대 max 글자(rune)로 자릅니다. 잘렸으면 끝에 …를 붙입니다.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	r := []rune(text)
	if max == 1 {
		return ellipsis
	}
	return strings.TrimRightFunc(string(r[:max-1]), unicode.IsSpace) + ellipsis
}

// Fit은 Clean 후 max 글자로 자릅니다. bool은 원문이 바뀌었는지 여부입니다.
func Fit(text string, max int) (string, bool) {
	cleaned, changed := Clean(text)
	fitted := Truncate(cleaned, max)
	return fitted, changed || fitted != cleaned
}
